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


package ingestion

import (
	"sync"
	"time"

	"github.com/poiesic/docent/core"
)

// State is the lifecycle state of a document processing run.
type State int

const (
	// StateNotStarted means no run has been accepted for the document.
	StateNotStarted State = iota
	// StateProcessing means a run is currently executing.
	StateProcessing
	// StateCompleted means the last run finished successfully.
	StateCompleted
	// StateFailed means the last run failed after exhausting its retries.
	StateFailed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateProcessing:
		return "PROCESSING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state is an end state of a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Status is a point-in-time snapshot of a document's processing lifecycle.
// Callers receive copies; mutating a snapshot has no effect on the tracker.
type Status struct {
	DocumentId core.ID
	State      State
	Progress   float64 // 0..100
	Message    string
	Error      string // terminal error text, set only in StateFailed

	StartedAt  time.Time
	FinishedAt time.Time

	// Final counts, populated on completion.
	Chapters            int
	EmbeddingsProcessed int
	EmbeddingsFailed    int
}

// Tracker holds per-document processing statuses. It is the only coupling
// point between asynchronous runs and synchronous status polling; reads never
// block behind a running pipeline.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[core.ID]*Status
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[core.ID]*Status)}
}

// Begin accepts a new run for the document, entering PROCESSING.
// A prior terminal status is replaced; a run still in PROCESSING rejects the
// new one with ErrRunInProgress.
func (t *Tracker) Begin(documentID core.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if current, ok := t.statuses[documentID]; ok && current.State == StateProcessing {
		return ErrRunInProgress
	}

	t.statuses[documentID] = &Status{
		DocumentId: documentID,
		State:      StateProcessing,
		Message:    "starting",
		StartedAt:  time.Now().UTC(),
	}
	return nil
}

// Progress records intermediate progress for a running document.
// Ignored when the document has no active run.
func (t *Tracker) Progress(documentID core.ID, percent float64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.statuses[documentID]
	if !ok || status.State != StateProcessing {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	status.Progress = percent
	status.Message = message
}

// Complete moves the document to COMPLETED, recording the final counts.
func (t *Tracker) Complete(documentID core.ID, result *Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.statuses[documentID]
	if !ok {
		return
	}
	status.State = StateCompleted
	status.Progress = 100
	status.Message = "completed"
	status.FinishedAt = time.Now().UTC()
	if result != nil {
		status.Chapters = result.Chapters
		status.EmbeddingsProcessed = result.EmbeddingsProcessed
		status.EmbeddingsFailed = result.EmbeddingsFailed
	}
}

// Fail moves the document to FAILED with the terminal error message.
func (t *Tracker) Fail(documentID core.ID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.statuses[documentID]
	if !ok {
		return
	}
	status.State = StateFailed
	status.Message = "failed"
	status.FinishedAt = time.Now().UTC()
	if err != nil {
		status.Error = err.Error()
	}
}

// Get returns a snapshot of the document's status.
// The second return is false when no run was ever accepted for the document.
func (t *Tracker) Get(documentID core.ID) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.statuses[documentID]
	if !ok {
		return Status{DocumentId: documentID, State: StateNotStarted}, false
	}
	return *status, true
}
