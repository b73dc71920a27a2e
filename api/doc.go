// Package api binds the HTTP routes to the transcription pipeline and the
// memory services. Handlers parse and validate input, call one service
// method and render the result; errors go through server.RespondWithError.
package api
