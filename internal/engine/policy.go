package engine

// Policy carries every tunable threshold the engine scores against.
// Zero fields are replaced by the package defaults in WithDefaults.
type Policy struct {
	ShortWindow    int
	LongWindow     int
	MinHistory     int
	TradeThreshold float64

	ExtremeFear  int // value <= this is extreme fear
	Fear         int // value <= this is fear/neutral
	Greed        int // value >= this is greed
	ExtremeGreed int // value >= this is extreme greed
	StrongFG     float64
	MildFG       float64

	StrongSentiment       float64
	MildSentiment         float64
	StrongSentimentWeight float64
	MildSentimentWeight   float64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ShortWindow:    20,
		LongWindow:     50,
		MinHistory:     50,
		TradeThreshold: 3.5,

		ExtremeFear:  20,
		Fear:         50,
		Greed:        60,
		ExtremeGreed: 80,
		StrongFG:     5,
		MildFG:       2,

		StrongSentiment:       0.5,
		MildSentiment:         0.2,
		StrongSentimentWeight: 3,
		MildSentimentWeight:   1,
	}
}

// WithDefaults fills zero fields from DefaultPolicy. MinHistory never drops below LongWindow.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ShortWindow <= 0 {
		p.ShortWindow = d.ShortWindow
	}
	if p.LongWindow <= 0 {
		p.LongWindow = d.LongWindow
	}
	if p.MinHistory <= 0 {
		p.MinHistory = d.MinHistory
	}
	if p.MinHistory < p.LongWindow {
		p.MinHistory = p.LongWindow
	}
	if p.TradeThreshold <= 0 {
		p.TradeThreshold = d.TradeThreshold
	}
	if p.ExtremeFear <= 0 {
		p.ExtremeFear = d.ExtremeFear
	}
	if p.Fear <= 0 {
		p.Fear = d.Fear
	}
	if p.Greed <= 0 {
		p.Greed = d.Greed
	}
	if p.ExtremeGreed <= 0 {
		p.ExtremeGreed = d.ExtremeGreed
	}
	if p.StrongFG <= 0 {
		p.StrongFG = d.StrongFG
	}
	if p.MildFG <= 0 {
		p.MildFG = d.MildFG
	}
	if p.StrongSentiment <= 0 {
		p.StrongSentiment = d.StrongSentiment
	}
	if p.MildSentiment <= 0 {
		p.MildSentiment = d.MildSentiment
	}
	if p.StrongSentimentWeight <= 0 {
		p.StrongSentimentWeight = d.StrongSentimentWeight
	}
	if p.MildSentimentWeight <= 0 {
		p.MildSentimentWeight = d.MildSentimentWeight
	}
	return p
}
