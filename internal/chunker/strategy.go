package chunker

import "unicode"

// Splitter names
const (
	SplitterParagraph  = "paragraph"
	SplitterSentence   = "sentence"
	SplitterLine       = "line"
	SplitterParagrapah = "paragrapah"
)

// boundaryFunc reports whether a chunk may end right before position i
type boundaryFunc func(text []rune, i int) bool

var strategies = map[string]boundaryFunc{
	SplitterParagraph:  afterBlankLine,
	SplitterSentence:   afterSentence,
	SplitterLine:       afterNewline,
	SplitterParagrapah: afterSentence,
}

// Known reports whether name is a registered splitter
func Known(name string) bool {
	_, ok := strategies[name]
	return ok
}

// afterBlankLine splits after a run of two or more newlines
func afterBlankLine(text []rune, i int) bool {
	if i < 2 || i >= len(text) || text[i] == '\n' {
		return false
	}
	return text[i-1] == '\n' && text[i-2] == '\n'
}

func afterNewline(text []rune, i int) bool {
	if i < 1 || i >= len(text) || text[i] == '\n' {
		return false
	}
	return text[i-1] == '\n'
}

// afterSentence splits after sentence punctuation and the whitespace that follows it
func afterSentence(text []rune, i int) bool {
	if i < 1 || i >= len(text) || unicode.IsSpace(text[i]) {
		return false
	}
	j := i - 1
	for j >= 0 && unicode.IsSpace(text[j]) {
		j--
	}
	if j < 0 {
		return false
	}
	switch text[j] {
	case '.', '!', '?':
		return true
	}
	return false
}

func afterDelimiter(delims map[rune]struct{}) boundaryFunc {
	return func(text []rune, i int) bool {
		if i < 1 || i >= len(text) {
			return false
		}
		_, ok := delims[text[i-1]]
		return ok
	}
}
