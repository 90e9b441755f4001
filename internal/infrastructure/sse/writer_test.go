package sse

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
)

func TestStreamWritesDataFrames(t *testing.T) {
	events := make(chan analysis.Event, 3)
	events <- analysis.Event{Status: analysis.StatusFetching}
	events <- analysis.Event{Status: analysis.StatusAnalyzing, Current: 1, Total: 2, Section: "data_sources.tables"}
	close(events)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/stream", nil)
	if err := Stream(rec, req, events); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache control = %q", cc)
	}

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 2 {
		t.Fatalf("frames = %d: %q", len(frames), rec.Body.String())
	}
	for _, f := range frames {
		if !strings.HasPrefix(f, "data: {") {
			t.Errorf("frame = %q", f)
		}
	}
	if !strings.Contains(frames[1], `"section":"data_sources.tables"`) {
		t.Errorf("frame = %q", frames[1])
	}
}

type plainWriter struct {
	header http.Header
	status int
	body   strings.Builder
}

func (w *plainWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *plainWriter) Write(p []byte) (int, error) { return w.body.Write(p) }
func (w *plainWriter) WriteHeader(status int)      { w.status = status }

func TestStreamRejectsNonFlushingWriter(t *testing.T) {
	w := &plainWriter{}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/stream", nil)
	if err := Stream(w, req, make(chan analysis.Event)); err == nil {
		t.Error("expected error for writer without Flush")
	}
	if w.status != http.StatusInternalServerError {
		t.Errorf("status = %d", w.status)
	}
}
