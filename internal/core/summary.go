package core

// DaySummary is the rollup of one day's ledger.
type DaySummary struct {
	Key        DateKey `json:"key"`
	Total      float64 `json:"total"`
	HasWorkout bool    `json:"has_workout"`
	HasCardio  bool    `json:"has_cardio"`
	Count      int     `json:"count"`
	Pending    int     `json:"pending"`
}

// Summarize reduces a ledger to its calorie total and activity flags.
// Total only counts food records.
func Summarize(l DayLedger) DaySummary {
	var s DaySummary
	for _, r := range l {
		switch r.Kind {
		case KindFood:
			s.Total += r.EffectiveCalories()
		case KindWorkout:
			s.HasWorkout = true
		case KindCardio:
			s.HasCardio = true
		}
		if !r.Done {
			s.Pending++
		}
	}
	s.Count = len(l)
	return s
}

// SummarizeGrid returns one summary per grid cell, in grid order.
func SummarizeGrid(g Grid, lookup func(DateKey) DayLedger) []DaySummary {
	out := make([]DaySummary, len(g.Keys))
	for i, k := range g.Keys {
		s := Summarize(lookup(k))
		s.Key = k
		out[i] = s
	}
	return out
}
