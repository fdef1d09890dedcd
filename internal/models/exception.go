package models

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ExceptionDefinition is a named policy deviation that can be granted to employees.
// Codes are unique on the DB level.
type ExceptionDefinition struct {
	ID         int64     `db:"exception_id" json:"exception_id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	RiskLevel  RiskLevel `db:"risk_level" json:"risk_level"`
	CategoryID *int64    `db:"category_id" json:"category_id"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  int64     `db:"created_at" json:"created_at"`
}

// ExceptionSummary is a definition enriched with the aggregates computed from
// assignments and linked tickets.
type ExceptionSummary struct {
	ExceptionDefinition
	AssigneesActive int64  `db:"assignees_active" json:"assignees_active"`
	LastAssignedAt  *int64 `db:"last_assigned_at" json:"last_assigned_at"`
	TicketsCount    int64  `db:"tickets_count" json:"tickets_count"`
}

// SimpleException is the lightweight projection used by pickers.
type SimpleException struct {
	ID        int64     `db:"exception_id" json:"exception_id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	RiskLevel RiskLevel `db:"risk_level" json:"risk_level"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

type ExceptionFilter struct {
	Search     string
	RiskLevel  string
	CategoryID *int64
	IsActive   *bool
}

func ParseRiskLevel(s string) (RiskLevel, bool) {
	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		if string(level) == s {
			return level, true
		}
	}
	return "", false
}
