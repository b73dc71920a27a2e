// Package resilience guards calls to outside dependencies: a circuit
// breaker for the inference sidecar, retry with backoff for startup
// connections, a bulkhead bounding background analysis jobs, and a token
// bucket keeping geocoder traffic inside the provider's usage policy.
package resilience
