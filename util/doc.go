// Package util holds small helpers shared by config parsing and HTTP handlers.
package util
