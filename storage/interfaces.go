package storage

import (
	"context"

	"github.com/poiesic/docent/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds chunks in a library similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first). Chunks with
	// nil vectors are skipped. A zero libraryID searches all libraries.
	FindSimilar(ctx context.Context, libraryID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// LibraryRepository provides operations for managing libraries.
type LibraryRepository interface {
	Repository
	// AddLibraries adds one or more libraries to storage.
	// IDs are always assigned from the sequence; a caller-supplied ID is
	// replaced, and InsertedAt/UpdatedAt are stamped.
	// Returns the libraries with generated IDs and timestamps populated.
	AddLibraries(ctx context.Context, libraries ...*core.Library) ([]*core.Library, error)

	// UpdateLibraries updates existing libraries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any library doesn't exist.
	UpdateLibraries(ctx context.Context, libraries ...*core.Library) ([]*core.Library, error)

	// DeleteLibraries removes libraries by their IDs, cascading to their
	// documents, chapters, and chunks.
	// Returns ErrNotFound if any library doesn't exist.
	DeleteLibraries(ctx context.Context, ids ...core.ID) error

	// GetLibrary retrieves a single library by ID.
	// Returns ErrNotFound if the library doesn't exist.
	GetLibrary(ctx context.Context, id core.ID) (*core.Library, error)

	// GetLibraries retrieves all libraries, ordered by ID.
	GetLibraries(ctx context.Context) ([]*core.Library, error)

	// FindLibraryByName finds a library by its unique name.
	// Returns ErrNotFound if no library matches.
	FindLibraryByName(ctx context.Context, name string) (*core.Library, error)
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// IDs are always assigned from the sequence; a caller-supplied ID is
	// replaced, and InsertedAt/UpdatedAt are stamped.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs, cascading to their
	// chapters and chunks.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentsByLibrary retrieves all documents in a library, ordered
	// by ID.
	GetDocumentsByLibrary(ctx context.Context, libraryID core.ID) ([]*core.Document, error)

	// FindDocumentByChecksum finds a document in a library by its content
	// checksum. Used for duplicate/change detection on upload.
	// Returns ErrNotFound if no document matches.
	FindDocumentByChecksum(ctx context.Context, libraryID core.ID, checksum core.ID) (*core.Document, error)
}

// ChapterRepository provides operations for managing chapters.
type ChapterRepository interface {
	Repository
	// AddChapters adds one or more chapters to storage.
	// IDs are always assigned from the sequence; a caller-supplied ID is
	// replaced, and InsertedAt/UpdatedAt are stamped.
	// Returns the chapters with generated IDs and timestamps populated.
	AddChapters(ctx context.Context, chapters ...*core.Chapter) ([]*core.Chapter, error)

	// UpdateChapters updates existing chapters.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chapter doesn't exist.
	UpdateChapters(ctx context.Context, chapters ...*core.Chapter) ([]*core.Chapter, error)

	// DeleteChapters removes chapters by their IDs, cascading to their
	// chunks.
	// Returns ErrNotFound if any chapter doesn't exist.
	DeleteChapters(ctx context.Context, ids ...core.ID) error

	// DeleteChaptersByDocument removes all chapters of a document,
	// cascading to chunks. Used by the overwrite path before reprocessing.
	// Deleting from a document with no chapters is not an error.
	DeleteChaptersByDocument(ctx context.Context, documentID core.ID) error

	// GetChapter retrieves a single chapter by ID.
	// Returns ErrNotFound if the chapter doesn't exist.
	GetChapter(ctx context.Context, id core.ID) (*core.Chapter, error)

	// GetChaptersByDocument retrieves all chapters of a document, ordered
	// by ordinal.
	GetChaptersByDocument(ctx context.Context, documentID core.ID) ([]*core.Chapter, error)

	// CountChaptersByDocument returns the number of chapters a document has.
	CountChaptersByDocument(ctx context.Context, documentID core.ID) (int, error)
}

// ChunkRepository provides operations for managing chunks and their
// embeddings.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage.
	// IDs are always assigned from the sequence; a caller-supplied ID is
	// replaced, and InsertedAt/UpdatedAt are stamped.
	// Returns the chunks with generated IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByChapter retrieves all chunks of a chapter, ordered by
	// kind then ordinal.
	GetChunksByChapter(ctx context.Context, chapterID core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document across its
	// chapters.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// CountChunksByDocument returns the number of chunks a document has.
	CountChunksByDocument(ctx context.Context, documentID core.ID) (int, error)

	// CountMissingVectors returns how many of a document's chunks still
	// carry a nil vector. Zero after a successful batch compute pass.
	CountMissingVectors(ctx context.Context, documentID core.ID) (int, error)
}
