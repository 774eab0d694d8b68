package analytics

import (
	"slices"
	"strings"
)

// GeneralTopic is the label for questions no rule matches.
const GeneralTopic = "General"

type topicRule struct {
	label    string
	keywords []string
}

// Rules are checked in order; the first keyword hit wins.
var topicRules = []topicRule{
	{"Authentication", []string{"authentication", "login", "auth"}},
	{"Data & Database", []string{"data", "database"}},
	{"API", []string{"api", "endpoint"}},
	{"Dashboards", []string{"dashboard", "visualization"}},
	{"Security", []string{"security", "permission"}},
	{"Integration", []string{"integration", "connect"}},
	{"Performance", []string{"performance", "optimize"}},
	{"Troubleshooting", []string{"error", "issue", "problem"}},
}

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// ClassifyTopic labels a question by case-insensitive keyword containment.
func ClassifyTopic(question string) string {
	q := strings.ToLower(question)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.label
			}
		}
	}
	return GeneralTopic
}

// TopicHistogram folds per-question counts into per-topic counts, largest
// first.
func TopicHistogram(questions []QuestionCount) []TopicCount {
	var (
		out   []TopicCount
		index = make(map[string]int)
	)
	for _, q := range questions {
		topic := ClassifyTopic(q.Question)
		i, ok := index[topic]
		if !ok {
			i = len(out)
			index[topic] = i
			out = append(out, TopicCount{Topic: topic})
		}
		out[i].Count += q.Count
	}
	slices.SortStableFunc(out, func(a, b TopicCount) int { return b.Count - a.Count })
	return out
}
