// Package state owns the shared mutable state of Glowdeck: current
// brightness, volume, selected track and the message board.
//
// All access goes through the Store, which serialises reads and writes with
// a single mutex. Contention is low and every operation is short, so one
// lock with no reader/writer split keeps the invariants easy to reason
// about: no component ever holds a reference into the shared state without
// the lock held.
//
// Messages can be persisted through a Repository. The whole ordered
// sequence is rewritten on every mutation (last write wins); the file
// backend uses write-temp-then-rename so a crash mid-write never corrupts
// the previous on-disk content. A failed persistence write is surfaced to
// the caller as ErrPersistence while the in-memory mutation stands, so
// memory and disk can diverge visibly rather than silently.
package state
