// Package logger provides structured logging built on zerolog.
//
// Loggers are scoped per component and accept field maps:
//
//	log := logger.WithComponent("transcription")
//	log.Info("model loaded", map[string]interface{}{"model": "small"})
//
// Errors logged through WithStack carry a stack trace in the "stack" field.
package logger
