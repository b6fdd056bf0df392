package types

import "time"

// CallStats records one model invocation for usage accounting.
type CallStats struct {
	Timestamp    time.Time `json:"timestamp"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	PromptChars  int       `json:"prompt_chars"`
	TotalTokens  int       `json:"total_tokens"`
}

// ModelUsageSummary holds running totals and integer averages across
// all model calls in a run.
type ModelUsageSummary struct {
	Calls                  int `json:"llm_calls"`
	TotalInputTokens       int `json:"total_input_tokens"`
	TotalOutputTokens      int `json:"total_output_tokens"`
	TotalTokens            int `json:"total_tokens"`
	AvgInputTokensPerCall  int `json:"avg_input_tokens_per_call"`
	AvgOutputTokensPerCall int `json:"avg_output_tokens_per_call"`
}

// ModelUsage is the per-call log plus its summary.
type ModelUsage struct {
	Calls   []CallStats       `json:"calls"`
	Summary ModelUsageSummary `json:"summary"`
}

// UsageStats accumulates counters for one discovery run. It is created
// fresh per run; callers that update it from concurrent goroutines must
// serialize access themselves.
type UsageStats struct {
	CacheHit            bool       `json:"cache_hit"`
	ProcessingTime      float64    `json:"processing_time"`
	DocsProcessed       int        `json:"docs_processed"`
	TotalFields         int        `json:"total_fields"`
	TotalLocations      int        `json:"total_locations"`
	SectionsCreated     int        `json:"sections_created"`
	TotalCharsProcessed int        `json:"total_chars_processed"`
	MergeTime           float64    `json:"merge_time"`
	Model               ModelUsage `json:"llm"`
}

// NewUsageStats returns a zeroed stats accumulator with a non-nil call log.
func NewUsageStats() *UsageStats {
	return &UsageStats{
		Model: ModelUsage{Calls: []CallStats{}},
	}
}

// RecordCall appends a model call record and updates the running summary.
func (s *UsageStats) RecordCall(call CallStats) {
	call.TotalTokens = call.InputTokens + call.OutputTokens
	s.Model.Calls = append(s.Model.Calls, call)

	summary := &s.Model.Summary
	summary.Calls++
	summary.TotalInputTokens += call.InputTokens
	summary.TotalOutputTokens += call.OutputTokens
	summary.TotalTokens = summary.TotalInputTokens + summary.TotalOutputTokens
	summary.AvgInputTokensPerCall = summary.TotalInputTokens / summary.Calls
	summary.AvgOutputTokensPerCall = summary.TotalOutputTokens / summary.Calls
}
