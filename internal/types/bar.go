package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a single historical price bar as reported by the session.
// Volume and WAP are decimals because the feed reports fractional sizes
// for some contracts.
type Bar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   decimal.Decimal
	WAP      decimal.Decimal
	BarCount int
}

// Date returns the bar's calendar date in YYYY-MM-DD form. Partition
// files are keyed by this value.
func (b Bar) Date() string {
	return b.Time.Format("2006-01-02")
}
