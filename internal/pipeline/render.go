package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Renderer writes check reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON; "-" means stdout
func (r *Renderer) RenderJSON(report *CheckReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RenderMarkdown writes the report as a review-ready Markdown document
func (r *Renderer) RenderMarkdown(report *CheckReport, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conflict Check: %s\n\n", report.Claim.ID)
	fmt.Fprintf(&b, "- **Grantor**: %s\n", report.Claim.GrantorName)
	fmt.Fprintf(&b, "- **Status**: %s\n", report.Conflict.Status)
	fmt.Fprintf(&b, "- **Human review required**: %v\n", report.Conflict.RequiresHITL)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	if len(report.Conflict.Conflicts) > 0 {
		b.WriteString("## Conflicting Claims\n\n")
		b.WriteString("| Claim | Grantor | IoU | Overlap | Severity | Alert |\n")
		b.WriteString("|-------|---------|-----|---------|----------|-------|\n")
		for _, cf := range report.Conflict.Conflicts {
			fmt.Fprintf(&b, "| %s | %s | %.3f | %.1f%% | %s | %s |\n",
				cf.ClaimID, cf.GrantorName, cf.IoUScore, cf.OverlapPercentage, cf.Severity, cf.AlertType)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Reasoning\n\n")
	for _, reason := range report.Conflict.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	b.WriteString("\n")

	g := report.Grantor
	b.WriteString("## Grantor Profile\n\n")
	fmt.Fprintf(&b, "- **Claims**: %d total, %d disputed, %d rejected\n", g.TotalClaims, g.DisputedClaims, g.RejectedClaims)
	fmt.Fprintf(&b, "- **Dispute rate**: %.2f\n", g.DisputeRate)
	fmt.Fprintf(&b, "- **Risk level**: %s\n", g.RiskLevel)
	if g.IsRedFlag {
		b.WriteString("- **RED FLAG**: elevated dispute pattern across claim history\n")
	}
	b.WriteString("\n")

	if v := report.Satellite; v != nil {
		b.WriteString("## Satellite Verdict\n\n")
		fmt.Fprintf(&b, "- **Source**: %s\n", v.Source)
		fmt.Fprintf(&b, "- **Confidence**: %.2f\n", v.ConfidenceScore)
		fmt.Fprintf(&b, "- **Water body**: %v\n", v.WaterBodyDetected)
		fmt.Fprintf(&b, "- **Protected area**: %v\n\n", v.ProtectedAreaDetected)
	}

	if n := report.Narrative; n != nil && n.SummaryMD != "" {
		b.WriteString("## Review Summary\n\n")
		b.WriteString(n.SummaryMD)
		b.WriteString("\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "> Warning: %s\n", w)
		}
		if len(n.Warnings) > 0 {
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n")
		b.WriteString("Generated by landsafe. Findings describe overlap risk; they do not adjudicate ownership.\n")
	}

	if path == "-" {
		_, err := io.WriteString(os.Stdout, b.String())
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// RenderSummary prints a one-glance summary to stdout
func (r *Renderer) RenderSummary(report *CheckReport) {
	fmt.Printf("\nClaim:    %s (%s)\n", report.Claim.ID, report.Claim.GrantorName)
	fmt.Printf("Status:   %s\n", report.Conflict.Status)
	fmt.Printf("Review:   %v\n", report.Conflict.RequiresHITL)
	fmt.Printf("Conflicts: %d\n", len(report.Conflict.Conflicts))
	fmt.Printf("Grantor:  %s risk (%d claims, %.2f dispute rate)\n",
		report.Grantor.RiskLevel, report.Grantor.TotalClaims, report.Grantor.DisputeRate)
}
