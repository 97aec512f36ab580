package model

// RiskLevel classifies a grantor's historical dispute pattern
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// GrantorHistoryResult is the per-seller aggregate recomputed from the claim
// store. It feeds human-review prioritization and never blocks a claim on
// its own.
type GrantorHistoryResult struct {
	GrantorName    string    `json:"grantor_name"`
	TotalClaims    int       `json:"total_claims"`
	DisputedClaims int       `json:"disputed_claims"`
	RejectedClaims int       `json:"rejected_claims"`
	DisputeRate    float64   `json:"dispute_rate"` // disputed / total
	RiskLevel      RiskLevel `json:"risk_level"`
	IsRedFlag      bool      `json:"is_red_flag"` // Elevated risk and enough history to call it a pattern
}
