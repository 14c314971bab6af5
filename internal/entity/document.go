package entity

import "time"

// Metadata keys set by the ingestion pipeline
const (
	MetadataFile  = "file"
	MetadataChunk = "chunk"
)

// Document is a unit of text with free-form metadata
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDocument copies metadata so the document does not share it with the caller
func NewDocument(content string, metadata map[string]any) Document {
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Document{Content: content, Metadata: md}
}

// Source returns the file the document was extracted from, if known
func (d Document) Source() string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[MetadataFile].(string)
	return s
}

// Chunk is a bounded fragment of a larger text.
// The first Overlap characters of Text repeat the tail of the previous chunk.
type Chunk struct {
	Text    string `json:"text"`
	Index   int    `json:"index"`
	Overlap int    `json:"overlap"`
}

// IndexEntry is a document together with its embedding
type IndexEntry struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Document  Document  `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredDocument is a retrieval hit
type ScoredDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// RetrievalResult is ordered by descending score
type RetrievalResult []ScoredDocument

// Documents drops the scores
func (r RetrievalResult) Documents() []Document {
	docs := make([]Document, 0, len(r))
	for _, sd := range r {
		docs = append(docs, sd.Document)
	}
	return docs
}

// RetrieveOptions configures a retrieval
type RetrieveOptions struct {
	K int `json:"k"`
}
