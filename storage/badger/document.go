// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, libraryID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, libraryID, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			if err := core.ValidateDocument(document); err != nil {
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			document.Id = id

			document.InsertedAt = time.Now().UTC()
			document.UpdatedAt = document.InsertedAt

			if err := writeDocument(tx, document); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			if err := core.ValidateDocument(document); err != nil {
				return err
			}

			key := makeDocumentKey(document.Id)
			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			document.UpdatedAt = time.Now().UTC()

			// Move the checksum index when the body changed
			if old.Checksum != document.Checksum {
				if err := tx.Delete(makeDocumentChecksumKey(old.LibraryId, old.Checksum)); err != nil {
					return err
				}
			}
			if err := writeDocument(tx, document); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// DeleteDocuments removes documents by their IDs, cascading to chapters and
// chunks.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			document, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if document == nil {
				return storage.ErrNotFound
			}
			if err := deleteDocumentCascade(tx, id); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			document, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetDocumentsByLibrary retrieves all documents in a library, ordered by ID.
func (r *DocumentRepository) GetDocumentsByLibrary(ctx context.Context, libraryID core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectChildIDs(tx, makePartialDocumentLibraryKey(libraryID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			document, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortByID(results, func(d *core.Document) core.ID { return d.Id })
	return results, nil
}

// FindDocumentByChecksum finds a document in a library by content checksum.
func (r *DocumentRepository) FindDocumentByChecksum(ctx context.Context, libraryID core.ID, checksum core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentChecksumKey(libraryID, checksum))
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

		result, err = readDocument(tx, makeDocumentKey(id))
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

// writeDocument stores the primary record and its indexes.
func writeDocument(tx *badger.Txn, document *core.Document) error {
	if err := tx.Set(makeDocumentKey(document.Id), storage.MarshalDocument(document)); err != nil {
		return err
	}
	idValue := storage.MarshalID(document.Id)
	if err := tx.Set(makeDocumentLibraryKey(document.LibraryId, document.Id), idValue); err != nil {
		return err
	}
	return tx.Set(makeDocumentChecksumKey(document.LibraryId, document.Checksum), idValue)
}

// deleteDocumentCascade removes a document, its indexes, and all dependent
// chapters and chunks.
func deleteDocumentCascade(tx *badger.Txn, id core.ID) error {
	document, err := readDocument(tx, makeDocumentKey(id))
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	if err := deleteChaptersCascade(tx, id); err != nil {
		return err
	}

	if err := tx.Delete(makeDocumentLibraryKey(document.LibraryId, document.Id)); err != nil {
		return err
	}
	if err := tx.Delete(makeDocumentChecksumKey(document.LibraryId, document.Checksum)); err != nil {
		return err
	}
	return tx.Delete(makeDocumentKey(id))
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var document *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		document, err = storage.UnmarshalDocument(val)
		return err
	})
	return document, err
}
