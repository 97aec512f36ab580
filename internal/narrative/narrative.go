// Package narrative writes the optional review-packet summary for human
// reviewers. Hard rule: the narrative is generated after classification and
// never feeds back into severity, the registry, or the state machine. It
// describes risk; it never adjudicates.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/landsafe/landsafe/internal/model"
)

// Narrator generates the summary via an OpenAI-compatible endpoint
type Narrator struct {
	client *openai.Client
	cfg    model.NarrativeConfig
}

// New creates a narrator from configuration. An empty provider disables the
// narrative: (nil, nil).
func New(cfg model.NarrativeConfig) (*Narrator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
	default:
		return nil, fmt.Errorf("unknown narrative provider: %s (supported: openai)", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("narrative api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Narrator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Summarize turns a finished classification into a short markdown summary
// for the review queue
func (n *Narrator) Summarize(ctx context.Context, claim model.Claim, res model.SpatialConflictResult, profile model.GrantorHistoryResult) (model.ReviewNarrative, error) {
	out := model.ReviewNarrative{Enabled: true}

	modelName := n.cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := n.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 600
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You summarize land-claim conflict findings for human reviewers. " +
					"You describe risk signals; you NEVER decide whether a claim is valid, " +
					"never recommend approval or rejection, and never introduce facts " +
					"beyond the findings given to you.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(claim, res, profile),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return out, fmt.Errorf("narrative generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("narrative generation: empty response")
	}

	out.Model = modelName
	out.SummaryMD = strings.TrimSpace(resp.Choices[0].Message.Content)
	out.Warnings = adjudicationWarnings(out.SummaryMD)
	return out, nil
}

// buildPrompt lays out the findings the model is allowed to describe
func buildPrompt(claim model.Claim, res model.SpatialConflictResult, profile model.GrantorHistoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim %s by grantor %s.\n", claim.ID, claim.GrantorName)
	fmt.Fprintf(&b, "Conflict status: %s (human review required: %v).\n", res.Status, res.RequiresHITL)
	fmt.Fprintf(&b, "Grantor history: %d claims, %d disputed (rate %.2f), risk %s, red flag %v.\n",
		profile.TotalClaims, profile.DisputedClaims, profile.DisputeRate, profile.RiskLevel, profile.IsRedFlag)
	b.WriteString("Findings:\n")
	for _, r := range res.Reasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\nWrite a 3-4 sentence markdown summary of the risk picture for a reviewer. Describe the findings only.")
	return b.String()
}

// adjudicationWarnings flags summaries that drift into deciding the claim.
// The summary is still returned; the reviewer sees the warning alongside it.
func adjudicationWarnings(summary string) []string {
	lower := strings.ToLower(summary)
	var warnings []string
	for _, phrase := range []string{"should be approved", "should be rejected", "is valid", "is invalid", "is fraudulent"} {
		if strings.Contains(lower, phrase) {
			warnings = append(warnings, fmt.Sprintf("narrative contains adjudicating language: %q", phrase))
		}
	}
	return warnings
}
