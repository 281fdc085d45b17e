// Package models defines the value types shared by the batch core, the catalog client and the history store.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): lightweight structs exchanged with the remote catalog service
//   - [Playlist] : playlist id and name as listed by the catalog
//   - [ItemOutcome] : the result of adding one batch item
//   - [SongBatchResult] : the aggregate result of the single add-songs call
//
// 2. Persistent Entities: database-backed records of finished batch runs
//   - [Run] : one completed (or cancelled) batch with its totals
//   - [RunItem] : one item's outcome within a run, in processing order
//
// Persistent entities implement the [Model] interface, and [Repository] defines the data access contract.
package models
