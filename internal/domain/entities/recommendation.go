package entities

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityGrowth   Priority = "Growth"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Recommendation is an actionable suggestion derived from scores and trends.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
}
