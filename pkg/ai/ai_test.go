package ai

import "testing"

func TestApplyOptions(t *testing.T) {
	got := ApplyOptions(
		GenerateOptions{Model: "default", Temperature: 0.3},
		WithModel("qwen"),
		WithTemperature(0.1),
		WithTopP(0.1),
		WithSystemPrompts("a", "b"),
		WithSchema("graph", "character graph", map[string]any{"type": "object"}),
	)

	if got.Model != "qwen" || got.Temperature != 0.1 || got.TopP != 0.1 {
		t.Fatalf("ApplyOptions() = %+v", got)
	}
	if len(got.SystemPrompts) != 2 {
		t.Fatalf("ApplyOptions() system prompts = %v, want 2", got.SystemPrompts)
	}
	if got.Schema == nil || got.Schema.Name != "graph" {
		t.Fatalf("ApplyOptions() schema = %+v, want graph", got.Schema)
	}
}

func TestMetricsRecorder(t *testing.T) {
	var r MetricsRecorder
	r.Add(ModelMetrics{InputTokens: 100, OutputTokens: 50, TotalTokens: 150, DurationMs: 500})
	r.Add(ModelMetrics{InputTokens: 10, OutputTokens: 40, TotalTokens: 50, DurationMs: 500})

	got := r.Snapshot()
	if got.Requests != 2 || got.TotalTokens != 200 || got.DurationMs != 1000 {
		t.Fatalf("Snapshot() = %+v", got)
	}
	if got.TokenPerSecond != 200 {
		t.Fatalf("Snapshot() tokens/s = %v, want 200", got.TokenPerSecond)
	}

	r.Reset()
	if got := r.Snapshot(); got != (ModelMetrics{}) {
		t.Fatalf("Snapshot() after Reset = %+v, want zero", got)
	}
}
