// Package component defines the lifecycle contract shared by the service's
// infrastructure pieces (database, redis, storage, transcription engine,
// HTTP server) and a registry that starts them in order and stops them in
// reverse.
package component
