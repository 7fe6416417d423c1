package challenge

import (
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine/prng"
)

// PriceGenerator emits synthetic OHLCV bars around a random base with small
// bar-to-bar drift and intra-bar noise (spec §4.2 "Price-prediction").
type PriceGenerator struct{}

const priceBarCount = 50

func (PriceGenerator) Generate(seed *int64) (Challenge, GroundTruth) {
	s := prng.NewSource(resolveSeed(seed))

	base := s.Range(140, 160)
	bars := make([]Bar, 0, priceBarCount)
	price := base

	for i := 0; i < priceBarCount; i++ {
		bars = append(bars, nextBar(s, price))
		price = bars[len(bars)-1].Close
	}

	// One more simulated step beyond the emitted bars is the hidden truth.
	truthBar := nextBar(s, price)

	return Challenge{
			GameMode: domain.GameModePricePrediction,
			Price:    &PriceChallenge{Bars: bars},
		}, GroundTruth{
			GameMode:  domain.GameModePricePrediction,
			PriceNext: truthBar.Close,
		}
}

func nextBar(s *prng.Source, open float64) Bar {
	drift := s.Range(-0.01, 0.01)
	close := open * (1 + drift)

	highNoise := s.Range(0, 0.005)
	lowNoise := s.Range(0, 0.005)

	top := open
	if close > top {
		top = close
	}
	bottom := open
	if close < bottom {
		bottom = close
	}

	return Bar{
		Open:  open,
		Close: close,
		High:  top * (1 + highNoise),
		Low:   bottom * (1 - lowNoise),
		Vol:   s.Range(1000, 10000),
	}
}
