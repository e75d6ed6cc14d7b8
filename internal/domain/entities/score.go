package entities

// ScoreSet holds the 0-100 category scores of a report and their weighted
// overall value.
type ScoreSet struct {
	SearchVisibility   float64 `json:"search_visibility"`
	GA4Performance     float64 `json:"ga4_performance"`
	MetaPerformance    float64 `json:"meta_performance"`
	TechnicalHealth    float64 `json:"technical_health"`
	ContentPerformance float64 `json:"content_performance"`
	Overall            float64 `json:"overall"`
}

// Weights are the category weights used to compute ScoreSet.Overall.
type Weights struct {
	SearchVisibility   float64 `json:"search_visibility"`
	GA4Performance     float64 `json:"ga4_performance"`
	MetaPerformance    float64 `json:"meta_performance"`
	TechnicalHealth    float64 `json:"technical_health"`
	ContentPerformance float64 `json:"content_performance"`
}

// DefaultWeights returns the standard category weights.
func DefaultWeights() Weights {
	return Weights{
		SearchVisibility:   0.20,
		GA4Performance:     0.30,
		MetaPerformance:    0.20,
		TechnicalHealth:    0.15,
		ContentPerformance: 0.15,
	}
}

// Values returns the weights in category order.
func (w Weights) Values() []float64 {
	return []float64{
		w.SearchVisibility,
		w.GA4Performance,
		w.MetaPerformance,
		w.TechnicalHealth,
		w.ContentPerformance,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w.Values() {
		total += v
	}
	return total
}
