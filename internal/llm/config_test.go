package llm

import "testing"

func TestGetModelFallbackChain(t *testing.T) {
	cfg := DefaultGeminiConfig()
	if got := cfg.GetModel(TierStandard); got != "gemini-2.5-flash" {
		t.Errorf("standard tier = %q", got)
	}

	cfg = &Config{Provider: ProviderGemini, Models: map[ModelTier]string{
		TierLite: "lite-only",
	}}
	if got := cfg.GetModel(TierAdvanced); got != "lite-only" {
		t.Errorf("advanced should fall back to lite, got %q", got)
	}

	empty := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	if got := empty.GetModel(TierStandard); got != "" {
		t.Errorf("unconfigured config should return empty, got %q", got)
	}
}

func TestWithModelDoesNotMutateOriginal(t *testing.T) {
	base := DefaultGeminiConfig()
	derived := base.WithModel(TierStandard, "gemini-custom")

	if got := derived.GetModel(TierStandard); got != "gemini-custom" {
		t.Errorf("derived standard = %q", got)
	}
	if got := base.GetModel(TierStandard); got != "gemini-2.5-flash" {
		t.Errorf("base mutated: standard = %q", got)
	}
	if got := derived.GetModel(TierAdvanced); got != "gemini-2.5-pro" {
		t.Errorf("other tiers should carry over, got %q", got)
	}
}
