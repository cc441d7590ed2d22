package basket

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

// monthCodes is the standard futures month code table for Jan..Dec.
var monthCodes = [12]byte{'F', 'G', 'H', 'J', 'K', 'M', 'N', 'Q', 'U', 'V', 'X', 'Z'}

// MonthCode returns the futures month letter for the given month.
func MonthCode(m time.Month) byte {
	return monthCodes[int(m)-1]
}

// LocalTicker encodes base symbol, expiration month code and the last
// digit of the expiration year, e.g. ("ES", 2024-03) -> "ESH4".
func LocalTicker(symbol string, expiration time.Time) string {
	return fmt.Sprintf("%s%c%d", symbol, MonthCode(expiration.Month()), expiration.Year()%10)
}

// ThirdFriday returns the 3rd Friday of the given month.
func ThirdFriday(year int, month time.Month) time.Time {
	count := 0

	for day := 1; day <= 21; day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.Weekday() == time.Friday {
			count++
			if count == 3 {
				return d
			}
		}
	}

	// A month always contains three Fridays in its first 21 days.
	panic("unreachable")
}

// ThirdLastBusinessDay returns the 3rd-from-last business day of the
// given month. A day qualifies when its weekday index is in 1..6 under a
// Monday=0 numbering; the historical range is kept as-is rather than
// reinterpreted.
func ThirdLastBusinessDay(year int, month time.Month) time.Time {
	lastDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	seen := 0

	for day := lastDay.Day(); day >= 1; day-- {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

		idx := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
		if idx >= 1 && idx <= 6 {
			seen++
			if seen == 3 {
				return d
			}
		}
	}

	panic("unreachable")
}

// expirationDate computes the expiration date of one month under the
// basket's day rule.
func (d Definition) expirationDate(year int, month time.Month) (time.Time, error) {
	switch d.DayRule {
	case DayRuleThirdFriday:
		return ThirdFriday(year, month), nil
	case DayRuleThirdLastBusinessDay:
		return ThirdLastBusinessDay(year, month), nil
	default:
		return time.Time{}, errors.Newf(errors.ErrCodeUnknownDayRule, "basket %q has unknown day rule %q", d.Name, d.DayRule)
	}
}

// NextExpiration returns the first expiration after the reference date.
// Candidates span the reference year plus the first expiration month of
// the following year so a late-December reference still resolves.
func (d Definition) NextExpiration(ref time.Time) (time.Time, error) {
	if len(d.ExpirationMonths) == 0 {
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidBasket, "basket %q has no expiration months", d.Name)
	}

	type candidate struct {
		year  int
		month time.Month
	}

	candidates := make([]candidate, 0, len(d.ExpirationMonths)+1)
	for _, m := range d.ExpirationMonths {
		candidates = append(candidates, candidate{ref.Year(), m})
	}

	candidates = append(candidates, candidate{ref.Year() + 1, d.ExpirationMonths[0]})

	for _, c := range candidates {
		exp, err := d.expirationDate(c.year, c.month)
		if err != nil {
			return time.Time{}, err
		}

		if exp.After(ref) || (d.InclusiveCutoff && exp.Equal(ref)) {
			return exp, nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeNoExpirationFound, "no expiration after %s for basket %q", ref.Format("2006-01-02"), d.Name)
}

// RollDate returns the query cutoff for a given expiration.
func (d Definition) RollDate(expiration time.Time) time.Time {
	return expiration.AddDate(0, 0, -d.RollOffsetDays)
}

// GenerateRequests computes the next unexpired contract per symbol and
// emits one fetch request for each, in symbol order. The request end
// time never passes the roll cutoff, so bars from the low-liquidity
// rollover window are not fetched.
func GenerateRequests(def Definition, ref time.Time) ([]types.FetchRequest, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	expiration, err := def.NextExpiration(ref)
	if err != nil {
		return nil, err
	}

	end := def.RollDate(expiration)
	if ref.Before(end) {
		end = ref
	}

	requests := make([]types.FetchRequest, 0, len(def.Symbols))

	for _, symbol := range def.Symbols {
		contract := types.FutureContract(symbol, LocalTicker(symbol, expiration), def.Exchange, def.Currency)
		requests = append(requests, types.FetchRequest{
			Contract:   contract,
			EndTime:    end,
			Duration:   def.Duration,
			BarSize:    def.BarSize,
			WhatToShow: "TRADES",
			UseRTH:     def.UseRTH,
		})
	}

	return requests, nil
}
