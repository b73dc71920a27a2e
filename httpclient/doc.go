// Package httpclient is the outbound HTTP client used for the geocoder and
// the inference sidecar. Requests go through an optional rate limiter,
// circuit breaker and retry loop, and failures come back as *Error values
// classified by transport outcome or status code.
//
//	c, _ := httpclient.New(httpclient.Config{BaseURL: "https://nominatim.openstreetmap.org"})
//	resp, err := c.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/search", Query: q})
package httpclient
