package narrative

import (
	"strings"
	"testing"

	"github.com/landsafe/landsafe/internal/model"
)

func TestNew_DisabledReturnsNil(t *testing.T) {
	n, err := New(model.NarrativeConfig{Provider: ""})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n != nil {
		t.Error("Expected nil narrator when disabled")
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(model.NarrativeConfig{Provider: "openai"}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(model.NarrativeConfig{Provider: "gemini", APIKey: "k"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestAdjudicationWarnings(t *testing.T) {
	warnings := adjudicationWarnings("This claim should be rejected because the overlap is large.")
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}

	if got := adjudicationWarnings("Two critical overlaps were found against earlier claims."); len(got) != 0 {
		t.Errorf("Expected no warnings for descriptive text, got %v", got)
	}
}

func TestBuildPrompt_IncludesFindings(t *testing.T) {
	res := model.SpatialConflictResult{
		Status:       model.ConflictHighRisk,
		RequiresHITL: true,
		Reasons:      []string{"critical overlap present"},
	}
	prompt := buildPrompt(model.Claim{GrantorName: "Chief Okafor"}, res, model.GrantorHistoryResult{TotalClaims: 4})
	for _, want := range []string{"Chief Okafor", "HIGH_RISK", "critical overlap present"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}
