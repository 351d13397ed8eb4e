// Package http provides the HTTP client used to fetch trip-record files.
//
// This package handles:
//   - Connection pooling sized for the download worker pool
//   - Streaming GET requests that expose the declared Content-Length
//   - Classification of non-2xx responses into typed errors
//   - An idle timeout on the body, so a stalled transfer fails instead of
//     blocking its worker forever
//
// The client makes exactly one request per call. Retrying is the caller's
// job, so a failed attempt never leaves a half-used connection behind: the
// body of an error response is closed without being drained.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.Get(ctx, url)
//	if err != nil {
//	    var se *http.StatusError
//	    errors.As(err, &se) // se.Code
//	}
//	defer resp.Body.Close()
//	// resp.ContentLength, resp.Body
package http
