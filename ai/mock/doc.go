// Package mock provides test doubles for the ai package interfaces.
//
// Mocks generate deterministic vectors and parseable completion output by
// default, and accept function fields for behavior injection. The
// FailuresRemaining counters let tests simulate transient provider outages
// that recover after N calls.
package mock
