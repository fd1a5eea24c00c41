// Package http provides the HTTP transport used against the remote identity
// and generation services.
//
// This package handles:
//   - Form-encoded and JSON POST requests
//   - Buffered GET requests for API calls
//   - Streaming GET requests for audio downloads
//   - Mapping non-success status codes to sentinel errors
//
// It deliberately performs no automatic retries; a failed call fails its
// caller immediately and retry decisions stay with the orchestration layer.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.PostForm(ctx, url, form, header)
//	if errors.Is(err, http.ErrPaymentRequired) {
//	    // account has no generation allowance left
//	}
//
//	stream, err := client.GetStream(ctx, audioURL)
//	defer stream.Body.Close()
package http
