package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// LibraryRepository implements storage.LibraryRepository for BadgerDB.
type LibraryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.LibraryRepository = (*LibraryRepository)(nil)

// NewLibraryRepository creates a new LibraryRepository.
func NewLibraryRepository(backend *Backend) (*LibraryRepository, error) {
	idSeq, err := backend.GetSequence(libraryIDSeq)
	if err != nil {
		return nil, err
	}

	return &LibraryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *LibraryRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *LibraryRepository) FindSimilar(ctx context.Context, libraryID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, libraryID, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *LibraryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddLibraries adds one or more libraries to storage.
func (r *LibraryRepository) AddLibraries(ctx context.Context, libraries ...*core.Library) ([]*core.Library, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, library := range libraries {
			if err := core.ValidateLibrary(library); err != nil {
				return err
			}

			// The name index doubles as a uniqueness constraint
			nameKey := makeLibraryNameKey(library.Name)
			if _, err := tx.Get(nameKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			library.Id = id

			library.InsertedAt = time.Now().UTC()
			library.UpdatedAt = library.InsertedAt

			key := makeLibraryKey(library.Id)
			if err := tx.Set(key, storage.MarshalLibrary(library)); err != nil {
				return err
			}
			if err := tx.Set(nameKey, storage.MarshalID(library.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return libraries, err
}

// UpdateLibraries updates existing libraries.
func (r *LibraryRepository) UpdateLibraries(ctx context.Context, libraries ...*core.Library) ([]*core.Library, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, library := range libraries {
			if err := core.ValidateLibrary(library); err != nil {
				return err
			}

			key := makeLibraryKey(library.Id)
			old, err := readLibrary(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			library.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalLibrary(library)); err != nil {
				return err
			}

			// Move the name index if the library was renamed
			if old.Name != library.Name {
				if err := tx.Delete(makeLibraryNameKey(old.Name)); err != nil {
					return err
				}
				if err := tx.Set(makeLibraryNameKey(library.Name), storage.MarshalID(library.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return libraries, err
}

// DeleteLibraries removes libraries by their IDs, cascading to documents,
// chapters, and chunks.
func (r *LibraryRepository) DeleteLibraries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeLibraryKey(id)
			library, err := readLibrary(tx, key)
			if err != nil {
				return err
			}
			if library == nil {
				return storage.ErrNotFound
			}

			documentIDs, err := collectChildIDs(tx, makePartialDocumentLibraryKey(id))
			if err != nil {
				return err
			}
			for _, documentID := range documentIDs {
				if err := deleteDocumentCascade(tx, documentID); err != nil {
					return err
				}
			}

			if err := tx.Delete(makeLibraryNameKey(library.Name)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetLibrary retrieves a single library by ID.
func (r *LibraryRepository) GetLibrary(ctx context.Context, id core.ID) (*core.Library, error) {
	var result *core.Library
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readLibrary(tx, makeLibraryKey(id))
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

// GetLibraries retrieves all libraries, ordered by ID.
func (r *LibraryRepository) GetLibraries(ctx context.Context) ([]*core.Library, error) {
	var results []*core.Library
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(libraryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if string(item.Key()) == libraryIDSeq {
				continue
			}
			var library *core.Library
			err := item.Value(func(val []byte) error {
				var err error
				library, err = storage.UnmarshalLibrary(val)
				return err
			})
			if err != nil {
				return err
			}
			if library != nil {
				results = append(results, library)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortByID(results, func(l *core.Library) core.ID { return l.Id })
	return results, nil
}

// FindLibraryByName finds a library by its unique name.
func (r *LibraryRepository) FindLibraryByName(ctx context.Context, name string) (*core.Library, error) {
	var result *core.Library
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLibraryNameKey(name))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readLibrary(tx, makeLibraryKey(id))
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

// readLibrary reads a library from the transaction.
// Returns nil without error when the key does not exist.
func readLibrary(tx *badger.Txn, key []byte) (*core.Library, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var library *core.Library
	err = item.Value(func(val []byte) error {
		var err error
		library, err = storage.UnmarshalLibrary(val)
		return err
	})
	return library, err
}
