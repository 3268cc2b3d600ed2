// Package usage tracks token consumption counters reported by model
// backends. Counters are passed through unmodified from provider
// responses; no pricing or accounting logic lives here.
package usage

// Usage aggregates token counters across the backend calls of a run.
type Usage struct {
	Requests     int64 `json:"requests"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Add folds another usage sample into u.
func (u *Usage) Add(other Usage) {
	u.Requests += other.Requests
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
