// Package httputil holds the JSON helpers shared by the API handlers:
// success and error envelopes, status shortcuts, and request body decoding.
// Handlers go through these instead of raw http.ResponseWriter calls so
// every endpoint emits the same envelope shape.
package httputil
