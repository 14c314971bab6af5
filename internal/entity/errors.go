package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every pipeline stage wraps its failure with exactly one of these
// so callers can branch with errors.Is while the original cause stays reachable.
var (
	ErrExtraction = errors.New("extraction error")
	ErrIndex      = errors.New("index error")
	ErrRetrieval  = errors.New("retrieval error")
	ErrTool       = errors.New("tool error")
	ErrValidation = errors.New("validation error")
	ErrGeneration = errors.New("generation error")
)

// Store errors
var (
	ErrIndexNotFound    = errors.New("index not found")
	ErrEmbedderMismatch = errors.New("index was built with a different embedder")
	ErrFlowNotFound     = errors.New("flow not found")
)

// ErrorKind is the wire name of an error kind
type ErrorKind string

const (
	KindExtraction ErrorKind = "EXTRACTION_ERROR"
	KindIndex      ErrorKind = "INDEX_ERROR"
	KindRetrieval  ErrorKind = "RETRIEVAL_ERROR"
	KindTool       ErrorKind = "TOOL_ERROR"
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindGeneration ErrorKind = "GENERATION_ERROR"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindInternal   ErrorKind = "INTERNAL"

	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrValidation, KindValidation},
	{ErrExtraction, KindExtraction},
	{ErrTool, KindTool},
	{ErrRetrieval, KindRetrieval},
	{ErrIndex, KindIndex},
	{ErrGeneration, KindGeneration},
	{ErrFlowNotFound, KindNotFound},
}

// KindOf returns the kind of the first matching sentinel in err's chain.
// The order matters: a tool failure surfaced through generation stays a tool error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// FailedDocument describes a document that was not written to the index
type FailedDocument struct {
	Position int
	Source   string
	Err      error
}

// IndexBatchError reports the documents of a batch that were not indexed.
// It matches ErrIndex.
type IndexBatchError struct {
	Index  string
	Total  int
	Failed []FailedDocument
}

func (e *IndexBatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("#%d: %v", f.Position, f.Err))
	}
	return fmt.Sprintf("%v: %d of %d documents not indexed into %q: %s",
		ErrIndex, len(e.Failed), e.Total, e.Index, strings.Join(parts, "; "))
}

func (e *IndexBatchError) Is(target error) bool {
	return target == ErrIndex
}

func (e *IndexBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
