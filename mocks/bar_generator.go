package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-snapshot/internal/types"
)

// BarGenerator produces realistic minute-bar streams for driver and
// writer tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a generator with the given seed. Use a fixed
// seed for reproducible results in tests.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// BarConfig configures how a bar stream is generated.
type BarConfig struct {
	// StartTime is the timestamp of the first bar
	StartTime time.Time
	// Interval is the duration between bars
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per bar (0.002 = 0.2%)
	Volatility float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultBarConfig returns a sensible default configuration.
func DefaultBarConfig() BarConfig {
	return BarConfig{
		StartTime:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          390,
		InitialPrice:   5100.0,
		Volatility:     0.002,
		VolumeBase:     250,
		VolumeVariance: 0.3,
	}
}

// Generate creates a bar series following a geometric Brownian motion
// model, so prices stay positive and high/low always bracket open/close.
func (g *BarGenerator) Generate(config BarConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed step
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		close := open * (1 + config.Volatility*z)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:     currentTime,
			Open:     roundToDecimals(open, 4),
			High:     roundToDecimals(high, 4),
			Low:      roundToDecimals(low, 4),
			Close:    roundToDecimals(close, 4),
			Volume:   decimal.NewFromFloat(roundToDecimals(volume, 2)),
			WAP:      decimal.NewFromFloat(roundToDecimals((open+close)/2, 4)),
			BarCount: 1 + g.rng.Intn(30),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GenerateDay is a convenience function producing one regular trading
// session of minute bars with a fixed seed.
func GenerateDay(day time.Time, initialPrice float64) []types.Bar {
	gen := NewBarGenerator(42)
	config := DefaultBarConfig()
	config.StartTime = time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, time.UTC)
	config.InitialPrice = initialPrice
	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
