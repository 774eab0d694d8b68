package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// ResponseVariant groups the records of one question that got the same
// answer with the same outcome.
type ResponseVariant struct {
	Answer            *string     `json:"answer"`
	HasError          bool        `json:"hasError"`
	IsUnanswered      bool        `json:"isUnanswered"`
	SkipReason        *string     `json:"skipReason"`
	Count             int         `json:"count"`
	Timestamps        []time.Time `json:"timestamps"`
	SessionIDs        []string    `json:"sessionIds"`
	ResponseTimesMs   []int64     `json:"responseTimes"`
	FirstSeen         time.Time   `json:"firstSeen"`
	LastSeen          time.Time   `json:"lastSeen"`
	AvgResponseTimeMs *int64      `json:"avgResponseTime"`
}

type variantKey struct {
	answer       string
	hasError     bool
	isUnanswered bool
	skipReason   string
}

func keyOf(r InteractionRecord) variantKey {
	k := variantKey{answer: "null", hasError: r.HasError, isUnanswered: r.IsUnanswered}
	if r.Answer != nil {
		k.answer = *r.Answer
	}
	if r.SkipReason != nil {
		k.skipReason = *r.SkipReason
	}
	return k
}

// SummarizeVariants groups records, which must be ordered newest first, and
// returns the groups by descending count. Groups with equal counts keep the
// order in which they first appear.
func SummarizeVariants(records []InteractionRecord) []ResponseVariant {
	var (
		variants []*ResponseVariant
		index    = make(map[variantKey]int)
		totals   []int64
	)

	for _, r := range records {
		k := keyOf(r)
		i, ok := index[k]
		if !ok {
			i = len(variants)
			index[k] = i
			variants = append(variants, &ResponseVariant{
				Answer:       r.Answer,
				HasError:     r.HasError,
				IsUnanswered: r.IsUnanswered,
				SkipReason:   r.SkipReason,
			})
			totals = append(totals, 0)
		}
		v := variants[i]
		v.Count++
		v.Timestamps = append(v.Timestamps, r.Timestamp)
		v.SessionIDs = append(v.SessionIDs, r.SessionID)
		if r.ResponseTimeMs != nil {
			v.ResponseTimesMs = append(v.ResponseTimesMs, *r.ResponseTimeMs)
			totals[i] += *r.ResponseTimeMs
		}
	}

	out := make([]ResponseVariant, len(variants))
	for i, v := range variants {
		v.LastSeen = v.Timestamps[0]
		v.FirstSeen = v.Timestamps[len(v.Timestamps)-1]
		if n := len(v.ResponseTimesMs); n > 0 {
			avg := int64(math.Round(float64(totals[i]) / float64(n)))
			v.AvgResponseTimeMs = &avg
		}
		out[i] = *v
	}
	slices.SortStableFunc(out, func(a, b ResponseVariant) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
