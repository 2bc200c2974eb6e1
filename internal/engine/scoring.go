package engine

import (
	"fmt"
	"math"
)

// direction a contribution was added to.
type direction int

const (
	neutral direction = iota
	bullish
	bearish
)

// Scores is the per-evaluation score triple plus the directional totals.
// SMAScore is signed; FearGreedScore and SentimentScore are magnitudes whose side is implied by BuyScore/SellScore.
type Scores struct {
	SMAScore       float64
	FearGreedScore float64
	SentimentScore float64
	BuyScore       float64
	SellScore      float64

	drivers []string
}

// Drivers lists the non-zero contributions in evaluation order, e.g. "fear&greed extreme fear +5 buy".
func (s Scores) Drivers() []string {
	out := make([]string, len(s.drivers))
	copy(out, s.drivers)
	return out
}

func (s *Scores) add(d direction, v float64, label string) {
	switch d {
	case bullish:
		s.BuyScore += v
	case bearish:
		s.SellScore += v
	default:
		return
	}
	if v == 0 {
		return
	}
	side := "buy"
	if d == bearish {
		side = "sell"
	}
	s.drivers = append(s.drivers, fmt.Sprintf("%s +%.2f %s", label, v, side))
}

// Score computes all three contributions independently. Absent readings contribute zero.
func (p Policy) Score(ind Indicators) Scores {
	var s Scores

	short, okShort := ind.SMAShort.Get()
	long, okLong := ind.SMALong.Get()
	if okShort && okLong {
		diff := short - long
		s.SMAScore = diff
		if diff > 0 {
			s.add(bullish, diff, "sma trend")
		} else {
			s.add(bearish, math.Abs(diff), "sma trend")
		}
	}

	if fg, ok := ind.FearGreed.Get(); ok {
		v, d, label := p.fearGreedContribution(fg.Value)
		s.FearGreedScore = v
		s.add(d, v, "fear&greed "+label)
	}

	if sent, ok := ind.Sentiment.Get(); ok {
		v, d, label := p.sentimentContribution(sent)
		s.SentimentScore = v
		s.add(d, v, "sentiment "+label)
	}
	return s
}

// fearGreedContribution checks bands in fixed priority order so boundaries resolve deterministically.
func (p Policy) fearGreedContribution(value int) (float64, direction, string) {
	switch {
	case value <= p.ExtremeFear:
		return p.StrongFG, bullish, "extreme fear"
	case value <= p.Fear:
		return p.MildFG, bullish, "fear"
	case value >= p.ExtremeGreed:
		return p.StrongFG, bearish, "extreme greed"
	case value >= p.Greed:
		return p.MildFG, bearish, "greed"
	default:
		return 0, neutral, "neutral"
	}
}

func (p Policy) sentimentContribution(x float64) (float64, direction, string) {
	switch {
	case x > p.StrongSentiment:
		return p.StrongSentimentWeight, bullish, "strong positive"
	case x > p.MildSentiment:
		return p.MildSentimentWeight, bullish, "positive"
	case x < -p.StrongSentiment:
		return p.StrongSentimentWeight, bearish, "strong negative"
	case x < -p.MildSentiment:
		return p.MildSentimentWeight, bearish, "negative"
	default:
		return 0, neutral, "neutral"
	}
}
