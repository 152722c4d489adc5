// Package models defines domain entities and persistence interfaces for the cardx card migration tool.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from or encoded to the kanban REST API
//   - [Card] : a work item with scalar fields, a custom-field [Card.Properties] map and sub-resources
//   - [Tag], [Comment], [Checklist], [ChecklistItem], [File] : card sub-resources
//   - [Board], [Column], [Lane] : card containers, [Location] addresses a slot on a board
//   - [CustomField] : a board's custom-field definition (instance-local id plus display name)
//
// 2. Persistent Entities: Database-backed run history
//   - [MigrationRun] : one invocation of the migration engine with aggregate counts
//   - [CardRecord] : the per-card [CardOutcome] of a run
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
