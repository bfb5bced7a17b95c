// Package ingestion provides pipeline orchestration for processing documents
// into chapters and embeddings.
//
// The Pipeline type drives each document through two phases:
//   - Phase 1 (mandatory): detect the content type, split into chapters,
//     persist chapters and their embedding records with nil vectors, then
//     compute vectors in provider-batched calls and write them back. Because
//     records are persisted before vectors are computed, an interrupted run
//     resumes instead of starting over.
//   - Phase 2 (enrichment): generate Q&A pairs and summaries for chapters
//     that do not have them yet. Enrichment failures are logged and counted
//     but never invalidate phase-1 output.
//
// Whole runs are retried on failure with a fixed delay, absorbing provider
// outages and rate limits. Documents process concurrently on a worker pool;
// per-document lifecycle state is exposed through the Tracker for polling
// callers.
package ingestion
