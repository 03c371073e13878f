package domain

import (
	"errors"
	"time"
)

var (
	ErrAIDisabled     = errors.New("AI assistant is disabled")
	ErrAIRuleNotFound = errors.New("AI specification rule not found")
	ErrAIRuleConflict = errors.New("rule for this type and parameter already exists")
	ErrAIRateLimited  = errors.New("AI request rate limit reached")
)

type AIRuleType string

const (
	AIRuleGeneral   AIRuleType = "general"
	AIRuleParameter AIRuleType = "parameter"
	AIRuleExample   AIRuleType = "example"
)

// AISpecificationRule is an admin-configured fragment of the recommender's
// system prompt, optionally tied to a technical parameter.
type AISpecificationRule struct {
	ID            int64
	RuleType      AIRuleType
	ParameterName *string
	ParameterUnit *string
	IsEnabled     bool
	PromptText    string
	DisplayOrder  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AIUsage aggregates recommender traffic per calendar day.
type AIUsage struct {
	ID           int64
	Date         time.Time
	QueriesCount int
	InputTokens  int
	OutputTokens int
}

type AIQueryLog struct {
	ID           int64
	UserID       int64
	Prompt       string
	Response     *string
	InputTokens  int
	OutputTokens int
	Model        string
	Success      bool
	ErrorMessage *string
	CreatedAt    time.Time
}

// Recommendation is one ranked result from the matching pipeline,
// annotated with live availability.
type Recommendation struct {
	EquipmentID    int64           `json:"equipment_id"`
	Name           string          `json:"name"`
	Reasoning      string          `json:"reasoning"`
	Confidence     int             `json:"confidence"`
	Available      *bool           `json:"available,omitempty"`
	Conflicts      []DateTimeRange `json:"conflicts,omitempty"`
	AvailableSlots []DateRange     `json:"available_slots,omitempty"`
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type DateTimeRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}
