// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: OrgAggregateModel shared by all org scoped tables
// - archive.go: archives_archive
// - export.go: exports_export
package models
