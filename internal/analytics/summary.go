package analytics

import "time"

type QuestionCount struct {
	Question  string     `json:"question"`
	Count     int        `json:"count"`
	LastAsked *time.Time `json:"lastAsked,omitempty"`
}

type DailyEngagement struct {
	Date           string `json:"date"`
	Interactions   int    `json:"interactions"`
	UniqueSessions int    `json:"uniqueSessions"`
}

// Summary is the dashboard's headline report.
type Summary struct {
	TotalInteractions         int               `json:"totalInteractions"`
	TotalBotLoads             int               `json:"totalBotLoads"`
	UniqueInteractingSessions int               `json:"uniqueInteractingSessions"`
	InteractionRate           float64           `json:"interactionRate"`
	AvgResponseTimeMs         float64           `json:"avgResponseTime"`
	ErrorRate                 float64           `json:"errorRate"`
	TopQuestions              []QuestionCount   `json:"topQuestions"`
	UnansweredQuestions       []QuestionCount   `json:"unansweredQuestions"`
	DailyEngagement           []DailyEngagement `json:"dailyEngagement"`
	AvgSourcesPerResponse     float64           `json:"avgSourcesPerResponse"`
}

// Percent returns part as a percentage of whole, or zero when whole is zero.
// Values are not rounded; callers format them for display.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
