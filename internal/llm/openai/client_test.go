package openai

import (
	"testing"

	"resume-ingest/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{model: "gpt-5", want: true},
		{model: "gpt-5-mini", want: true},
		{model: " GPT-5o ", want: true},
		{model: "gpt-4o-mini", want: false},
		{model: "", want: false},
	}

	for _, tt := range tests {
		if got := isGPT5(tt.model); got != tt.want {
			t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestNewClientHonorsTimeoutOverride(t *testing.T) {
	t.Setenv("OPENAI_TIMEOUT_SECONDS", "7")
	client, err := NewClient("k", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.httpClient.Timeout.Seconds(); got != 7 {
		t.Fatalf("expected 7s timeout, got %v", got)
	}
	if client.Model() != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", client.Model())
	}
	var _ llm.Client = client
}
