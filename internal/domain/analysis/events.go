package analysis

// Status identifies a progress event kind emitted during a streaming run.
type Status string

const (
	// StatusFetching is emitted once before any analysis work starts.
	StatusFetching Status = "fetching"
	// StatusAnalyzing is emitted as sections complete; Current is monotonic,
	// duplicate-free and reaches Total exactly once.
	StatusAnalyzing Status = "analyzing"
	// StatusComplete is the terminal progress event, emitted exactly once.
	StatusComplete Status = "complete"
	// StatusResult carries the full AgentOutput and closes the stream.
	StatusResult Status = "result"
)

// Event is one progress event in a streaming analysis run. Consumers must
// tolerate at-least-once delivery of analyzing events with idempotent
// Current values.
type Event struct {
	Status  Status       `json:"status"`
	Current int          `json:"current,omitempty"`
	Total   int          `json:"total,omitempty"`
	Section string       `json:"section,omitempty"`
	Data    *AgentOutput `json:"data,omitempty"`
}
