// Package relay holds relay definitions and their commanded on/off status.
//
// The Registry is the in-memory source of truth used by the scheduler and
// the API. It persists definitions through a Repository but never emits
// notifications; callers decide when a status change is announced.
//
// Relays are listed in insertion order, tracked by a sequence number that
// is assigned on first upsert and never reused.
package relay
