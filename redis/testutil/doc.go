// Package testutil starts an in-memory Redis for tests.
package testutil
