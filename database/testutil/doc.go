// Package testutil opens migrated in-memory SQLite databases for tests.
package testutil
