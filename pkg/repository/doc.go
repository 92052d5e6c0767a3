// Package repository provides the data access layer for the Bangumarr application.
//
// It defines the Repository interface and implements it using BoltDB as the
// underlying storage engine. The repository handles:
//   - The download history (highest episode per title, consumed magnet set)
//   - The persisted task queue, unique on magnet
//   - The cached seasonal airing calendar
//
// A run reads these stores once at start and writes them at well-defined
// checkpoints; there are no concurrent writers within a run.
package repository
