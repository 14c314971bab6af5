// Package chunker splits text into bounded, overlapping chunks.
package chunker

import (
	"fmt"

	"github.com/futig/joke-flows/internal/entity"
)

// Config controls chunk sizes. Lengths are in characters.
type Config struct {
	MinLength  int
	MaxLength  int
	Overlap    int
	Splitter   string
	Delimiters string
}

// DefaultConfig matches the ingestion defaults
func DefaultConfig() Config {
	return Config{
		MinLength: 1000,
		MaxLength: 2000,
		Overlap:   100,
		Splitter:  SplitterParagrapah,
	}
}

func (c Config) Validate() error {
	if c.MinLength <= 0 {
		return fmt.Errorf("%w: min length must be positive, got %d", entity.ErrValidation, c.MinLength)
	}
	if c.MaxLength < c.MinLength {
		return fmt.Errorf("%w: max length %d is less than min length %d", entity.ErrValidation, c.MaxLength, c.MinLength)
	}
	if c.Overlap < 0 || c.Overlap >= c.MinLength {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", entity.ErrValidation, c.MinLength, c.Overlap)
	}
	if !Known(c.Splitter) {
		return fmt.Errorf("%w: unknown splitter %q", entity.ErrValidation, c.Splitter)
	}
	return nil
}

type Chunker struct {
	cfg      Config
	boundary []boundaryFunc
}

func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	boundary := []boundaryFunc{strategies[cfg.Splitter]}
	if cfg.Delimiters != "" {
		delims := make(map[rune]struct{})
		for _, r := range cfg.Delimiters {
			delims[r] = struct{}{}
		}
		boundary = append(boundary, afterDelimiter(delims))
	}

	return &Chunker{cfg: cfg, boundary: boundary}, nil
}

// Chunk splits text. The chunks are deterministic and concatenating
// chunk[0] with chunk[i].Text[chunk[i].Overlap:] for the rest yields text.
func (c *Chunker) Chunk(text string) []entity.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []entity.Chunk
	start := 0
	for start < len(runes) {
		ov := min(c.cfg.Overlap, start)
		lo := max(1, c.cfg.MinLength-ov)
		hi := c.cfg.MaxLength - ov

		end := len(runes)
		if end-start > hi {
			end = c.splitPoint(runes, start+lo, start+hi)
		}

		chunks = append(chunks, entity.Chunk{
			Text:    string(runes[start-ov : end]),
			Index:   len(chunks),
			Overlap: ov,
		})
		start = end
	}
	return chunks
}

// splitPoint returns the last boundary in [lo, hi], or hi when there is none
func (c *Chunker) splitPoint(text []rune, lo, hi int) int {
	for i := hi; i >= lo; i-- {
		if c.isBoundary(text, i) {
			return i
		}
	}
	return hi
}

func (c *Chunker) isBoundary(text []rune, i int) bool {
	for _, b := range c.boundary {
		if b(text, i) {
			return true
		}
	}
	return false
}
