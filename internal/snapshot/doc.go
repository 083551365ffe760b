// Package snapshot implements the filesystem-backed snapshot store that
// decouples the feed writer from on-demand readers.
//
// Each channel is a directory (one per category) holding immutable snapshot
// files. A snapshot is written to a staging path and atomically renamed to
// its final ".succ" name, so a reader can only ever observe it as absent or
// fully present. Filenames embed a fixed-width millisecond timestamp, making
// lexicographic order equal chronological order.
//
// There is no locking anywhere: writers, readers and pruners may run in
// separate processes and coordinate only through atomic rename, monotonic
// naming, and tolerance for files vanishing mid-operation.
package snapshot
