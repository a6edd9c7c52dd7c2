package llm

import "testing"

func TestValidateIntentBatch_AcceptsWellFormedBatch(t *testing.T) {
	doc := map[string]any{
		"intents": []any{
			map[string]any{"domain": "messages", "type": "draft_reply", "value": 0.7, "urgency": 0.8, "effort_s": float64(60)},
		},
	}
	if err := ValidateIntentBatch(doc); err != nil {
		t.Fatalf("expected valid batch, got %v", err)
	}
}

func TestValidateIntentBatch_RejectsUnknownDomain(t *testing.T) {
	doc := map[string]any{
		"intents": []any{
			map[string]any{"domain": "finance", "type": "draft_reply", "value": 0.7, "urgency": 0.8, "effort_s": float64(60)},
		},
	}
	if err := ValidateIntentBatch(doc); err == nil {
		t.Fatal("expected validation error for unknown domain")
	}
}

func TestValidateIntentBatch_RejectsOutOfRangeValue(t *testing.T) {
	doc := map[string]any{
		"intents": []any{
			map[string]any{"domain": "messages", "type": "draft_reply", "value": 1.5, "urgency": 0.8, "effort_s": float64(60)},
		},
	}
	if err := ValidateIntentBatch(doc); err == nil {
		t.Fatal("expected validation error for out-of-range value")
	}
}

func TestValidateIntentBatch_RejectsMissingIntentsKey(t *testing.T) {
	if err := ValidateIntentBatch(map[string]any{}); err == nil {
		t.Fatal("expected validation error for missing intents key")
	}
}
