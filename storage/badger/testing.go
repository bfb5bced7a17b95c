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

import "github.com/poiesic/docent/storage"

// Repositories bundles the four repositories sharing one backend.
type Repositories struct {
	Libraries storage.LibraryRepository
	Documents storage.DocumentRepository
	Chapters  storage.ChapterRepository
	Chunks    storage.ChunkRepository
}

// NewRepositories creates all repositories over one backend.
// The caller owns the backend and must close the repositories before it.
func NewRepositories(backend *Backend) (*Repositories, error) {
	libraries, err := NewLibraryRepository(backend)
	if err != nil {
		return nil, err
	}
	documents, err := NewDocumentRepository(backend)
	if err != nil {
		libraries.Close()
		return nil, err
	}
	chapters, err := NewChapterRepository(backend)
	if err != nil {
		documents.Close()
		libraries.Close()
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		chapters.Close()
		documents.Close()
		libraries.Close()
		return nil, err
	}

	return &Repositories{
		Libraries: libraries,
		Documents: documents,
		Chapters:  chapters,
		Chunks:    chunks,
	}, nil
}

// Close releases all repository sequences.
func (r *Repositories) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{r.Chunks, r.Chapters, r.Documents, r.Libraries} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the repositories and then the backend when done.
func NewMemoryRepositories() (*Repositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repos, backend, nil
}
