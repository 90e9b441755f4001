// Package sse streams analysis progress events over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
)

// Stream writes every event from the channel to the response as one SSE
// data frame, flushing after each. It returns when the channel closes or
// the client disconnects; the caller owns run cancellation via the request
// context.
func Stream(w http.ResponseWriter, r *http.Request, events <-chan analysis.Event) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("encode event: %w", err)
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
