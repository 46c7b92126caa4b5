package models

// Requests for the introspection HTTP endpoints. Defined in domain for
// consistency and reuse.

type RuleTestRequest struct {
	Metric    string  `query:"metric" json:"metric" validate:"required"`
	Operator  string  `query:"operator" json:"operator" validate:"required,oneof=< > <= >= == !="`
	Threshold float64 `query:"threshold" json:"threshold"`
}

type RecentAlertsRequest struct {
	Limit    int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	Severity string `query:"severity" json:"severity" validate:"omitempty,oneof=INFO WARNING CRITICAL"`
}

type CooldownQueryRequest struct {
	RuleID string `query:"rule_id" json:"rule_id"`
}
