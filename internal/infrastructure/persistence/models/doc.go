// Package models holds the GORM row types for the sync engine's tables.
//
// Domain entities stay free of ORM tags; every model converts with
// FromDomain/ToDomain and the repositories in the parent package only ever
// read and write these types. Nested value objects (prices, images,
// variations, line items) live in JSON text columns so the same schema runs
// on PostgreSQL and on SQLite in tests.
package models
