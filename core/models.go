package core

//go:generate go run ../cmd/musgen

import (
	"time"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// EmbeddingKind classifies the granularity and purpose of an embedding record.
type EmbeddingKind int

const (
	// EmbeddingKindDocument represents a whole-document embedding.
	EmbeddingKindDocument EmbeddingKind = iota + 1
	// EmbeddingKindChapter represents a chapter-level embedding.
	EmbeddingKindChapter
	// EmbeddingKindChunk represents a leaf text fragment of an oversized chapter.
	EmbeddingKindChunk
	// EmbeddingKindQAPair represents a synthesized question/answer pair.
	EmbeddingKindQAPair
	// EmbeddingKindSummary represents a completion-generated chapter summary.
	EmbeddingKindSummary
	// EmbeddingKindMetadata represents an embedding of metadata only, no body text.
	EmbeddingKindMetadata
)

// String returns the strategy-facing name of the kind.
func (k EmbeddingKind) String() string {
	switch k {
	case EmbeddingKindDocument:
		return "document"
	case EmbeddingKindChapter:
		return "chapter"
	case EmbeddingKindChunk:
		return "chunk"
	case EmbeddingKindQAPair:
		return "qa_pair"
	case EmbeddingKindSummary:
		return "summary"
	case EmbeddingKindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Library is the tenancy unit owning documents. It carries the default
// embedding configuration and the hybrid ranking weight pair.
type Library struct {
	Id                 ID
	Name               string
	EmbeddingModel     string  // Default embedding model name
	EmbeddingDimension int     // Default embedding dimension
	CompletionModel    string  // Default completion model name
	MaxContextTokens   int     // Default model context budget
	SemanticWeight     float64 // Must satisfy |semantic+textual-1| <= WeightTolerance
	TextualWeight      float64
	InsertedAt         time.Time
	UpdatedAt          time.Time
}

// Document is an uploaded text bound to a library.
// Body mutations must go through SetBody so the checksum stays consistent.
type Document struct {
	Id         ID
	LibraryId  ID
	Title      string
	Body       string
	Checksum   ID  // Content checksum of the normalized body
	TokenCount int // Estimated tokens, derived at ingest time
	Active     bool
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SetBody replaces the document body and recomputes the content checksum.
func (d *Document) SetBody(body string) {
	d.Body = body
	d.Checksum = ChecksumContent(body)
}

// Chapter is a titled, ordered top-level segment of a document.
// Chapters are created only by splitters and always have a parent document.
// CharStart/CharEnd are character offsets into the document body, not model
// tokens.
type Chapter struct {
	Id         ID
	DocumentId ID
	Title      string
	Text       string
	Ordinal    int // 1-based position among sibling chapters
	CharStart  int
	CharEnd    int
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Chunk is a leaf text unit carrying exactly one embedding once computed.
// Children hold only their parents' IDs; there are no back-pointers.
type Chunk struct {
	Id         ID
	ChapterId  ID
	DocumentId ID
	LibraryId  ID
	Kind       EmbeddingKind
	Text       string
	Ordinal    int       // 1-based position within the chapter
	Vector     []float32 // nil until the batch compute pass writes it
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time

	// Retrieval scores populated only by query-time consumers.
	// The ingestion pipeline never sets these.
	SemanticScore float32
	TextualScore  float32
	CombinedScore float32
}

// SearchResult represents a chunk match with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}
