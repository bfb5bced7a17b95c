package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// ChapterRepository implements storage.ChapterRepository for BadgerDB.
type ChapterRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChapterRepository = (*ChapterRepository)(nil)

// NewChapterRepository creates a new ChapterRepository.
func NewChapterRepository(backend *Backend) (*ChapterRepository, error) {
	idSeq, err := backend.GetSequence(chapterIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChapterRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChapterRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *ChapterRepository) FindSimilar(ctx context.Context, libraryID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, libraryID, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ChapterRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChapters adds one or more chapters to storage.
func (r *ChapterRepository) AddChapters(ctx context.Context, chapters ...*core.Chapter) ([]*core.Chapter, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chapter := range chapters {
			if err := core.ValidateChapter(chapter); err != nil {
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			chapter.Id = id

			chapter.InsertedAt = time.Now().UTC()
			chapter.UpdatedAt = chapter.InsertedAt

			if err := tx.Set(makeChapterKey(chapter.Id), storage.MarshalChapter(chapter)); err != nil {
				return err
			}
			indexKey := makeChapterDocumentKey(chapter.DocumentId, chapter.Id)
			if err := tx.Set(indexKey, storage.MarshalID(chapter.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chapters, err
}

// UpdateChapters updates existing chapters.
func (r *ChapterRepository) UpdateChapters(ctx context.Context, chapters ...*core.Chapter) ([]*core.Chapter, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chapter := range chapters {
			if err := core.ValidateChapter(chapter); err != nil {
				return err
			}

			key := makeChapterKey(chapter.Id)
			old, err := readChapter(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chapter.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalChapter(chapter)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chapters, err
}

// DeleteChapters removes chapters by their IDs, cascading to chunks.
func (r *ChapterRepository) DeleteChapters(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chapter, err := readChapter(tx, makeChapterKey(id))
			if err != nil {
				return err
			}
			if chapter == nil {
				return storage.ErrNotFound
			}
			if err := deleteChapterCascade(tx, chapter); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteChaptersByDocument removes all chapters of a document, cascading to
// chunks. A document with no chapters is not an error.
func (r *ChapterRepository) DeleteChaptersByDocument(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChaptersCascade(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetChapter retrieves a single chapter by ID.
func (r *ChapterRepository) GetChapter(ctx context.Context, id core.ID) (*core.Chapter, error) {
	var result *core.Chapter
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChapter(tx, makeChapterKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChaptersByDocument retrieves all chapters of a document, ordered by
// ordinal.
func (r *ChapterRepository) GetChaptersByDocument(ctx context.Context, documentID core.ID) ([]*core.Chapter, error) {
	var results []*core.Chapter
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectChildIDs(tx, makePartialChapterDocumentKey(documentID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			chapter, err := readChapter(tx, makeChapterKey(id))
			if err != nil {
				return err
			}
			if chapter != nil {
				results = append(results, chapter)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Chapter) int {
		return a.Ordinal - b.Ordinal
	})
	return results, nil
}

// CountChaptersByDocument returns the number of chapters a document has.
func (r *ChapterRepository) CountChaptersByDocument(ctx context.Context, documentID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectChildIDs(tx, makePartialChapterDocumentKey(documentID))
		if err != nil {
			return err
		}
		count = len(ids)
		return nil
	}, false)
	return count, err
}

// deleteChaptersCascade removes all chapters of a document with their chunks.
func deleteChaptersCascade(tx *badger.Txn, documentID core.ID) error {
	chapterIDs, err := collectChildIDs(tx, makePartialChapterDocumentKey(documentID))
	if err != nil {
		return err
	}
	for _, chapterID := range chapterIDs {
		chapter, err := readChapter(tx, makeChapterKey(chapterID))
		if err != nil {
			return err
		}
		if chapter == nil {
			continue
		}
		if err := deleteChapterCascade(tx, chapter); err != nil {
			return err
		}
	}
	return nil
}

// deleteChapterCascade removes one chapter, its document index entry, and
// its chunks.
func deleteChapterCascade(tx *badger.Txn, chapter *core.Chapter) error {
	chunkIDs, err := collectChildIDs(tx, makePartialChunkChapterKey(chapter.Id))
	if err != nil {
		return err
	}
	for _, chunkID := range chunkIDs {
		chunk, err := readChunk(tx, makeChunkKey(chunkID))
		if err != nil {
			return err
		}
		if chunk == nil {
			continue
		}
		if err := deleteChunkRecord(tx, chunk); err != nil {
			return err
		}
	}

	if err := tx.Delete(makeChapterDocumentKey(chapter.DocumentId, chapter.Id)); err != nil {
		return err
	}
	return tx.Delete(makeChapterKey(chapter.Id))
}

// readChapter reads a chapter from the transaction.
// Returns nil without error when the key does not exist.
func readChapter(tx *badger.Txn, key []byte) (*core.Chapter, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var chapter *core.Chapter
	err = item.Value(func(val []byte) error {
		var err error
		chapter, err = storage.UnmarshalChapter(val)
		return err
	})
	return chapter, err
}
