package basket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

type CalendarTestSuite struct {
	suite.Suite
}

func TestCalendarSuite(t *testing.T) {
	suite.Run(t, new(CalendarTestSuite))
}

func (suite *CalendarTestSuite) TestThirdFriday() {
	// March 2024 Fridays fall on the 1st, 8th, 15th, 22nd, 29th.
	suite.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), ThirdFriday(2024, time.March))
	// June 2024 Fridays fall on the 7th, 14th, 21st, 28th.
	suite.Equal(time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC), ThirdFriday(2024, time.June))
	// December 2024 Fridays fall on the 6th, 13th, 20th, 27th.
	suite.Equal(time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC), ThirdFriday(2024, time.December))
}

func (suite *CalendarTestSuite) TestThirdLastBusinessDay() {
	// December 2024 ends on Tuesday the 31st. Counting back over days
	// with Monday=0 weekday index 1..6: 31st (Tue), 29th (Sun), 28th
	// (Sat); the Monday 30th is skipped.
	suite.Equal(time.Date(2024, time.December, 28, 0, 0, 0, 0, time.UTC), ThirdLastBusinessDay(2024, time.December))
}

func (suite *CalendarTestSuite) TestMonthCodes() {
	suite.Equal(byte('F'), MonthCode(time.January))
	suite.Equal(byte('H'), MonthCode(time.March))
	suite.Equal(byte('M'), MonthCode(time.June))
	suite.Equal(byte('U'), MonthCode(time.September))
	suite.Equal(byte('Z'), MonthCode(time.December))
}

func (suite *CalendarTestSuite) TestLocalTicker() {
	exp := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	suite.Equal("ESH4", LocalTicker("ES", exp))

	exp = time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC)
	suite.Equal("NQZ5", LocalTicker("NQ", exp))
}

func (suite *CalendarTestSuite) TestNextExpirationQuarterly() {
	def := Predefined()["index"]
	ref := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	exp, err := def.NextExpiration(ref)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), exp)
}

func (suite *CalendarTestSuite) TestNextExpirationYearRollover() {
	def := Predefined()["index"]
	// Past the December 2024 expiration (the 20th); the next contract
	// is March of the following year.
	ref := time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC)

	exp, err := def.NextExpiration(ref)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2025, time.March, 21, 0, 0, 0, 0, time.UTC), exp)
}

func (suite *CalendarTestSuite) TestNextExpirationCutoffComparison() {
	exclusive := Predefined()["index"]
	onExpiration := ThirdFriday(2024, time.March)

	exp, err := exclusive.NextExpiration(onExpiration)
	suite.Require().NoError(err)
	suite.Equal(ThirdFriday(2024, time.June), exp, "exclusive cutoff skips the expiring contract")

	inclusive := exclusive
	inclusive.InclusiveCutoff = true

	exp, err = inclusive.NextExpiration(onExpiration)
	suite.Require().NoError(err)
	suite.Equal(onExpiration, exp, "inclusive cutoff keeps the expiring contract")
}

func (suite *CalendarTestSuite) TestNextExpirationUnknownDayRule() {
	def := Predefined()["index"]
	def.DayRule = "lunar"

	_, err := def.NextExpiration(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownDayRule))
}

func (suite *CalendarTestSuite) TestGenerateRequestsScenario() {
	// Reference 2024-03-01 on a quarterly third-Friday basket:
	// expiration 2024-03-15, roll cutoff 2024-03-07, month code H,
	// year digit 4, and the end time capped at the reference.
	def := Predefined()["index"]
	ref := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	reqs, err := GenerateRequests(def, ref)
	suite.Require().NoError(err)
	suite.Require().Len(reqs, len(def.Symbols))

	exp, err := def.NextExpiration(ref)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), def.RollDate(exp))

	suite.Equal("ESH4", reqs[0].Contract.LocalSymbol)
	suite.Equal("NQH4", reqs[1].Contract.LocalSymbol)

	for _, req := range reqs {
		suite.Equal("FUT", req.Contract.SecType)
		suite.Equal("CME", req.Contract.Exchange)
		suite.Equal(ref, req.EndTime, "roll is in the future, so the end time is the reference")
		suite.False(req.EndTime.After(ref))
	}
}

func (suite *CalendarTestSuite) TestGenerateRequestsEndCappedAtRoll() {
	def := Predefined()["index"]
	// Inside the roll window: 2024-03-10 is past the 03-07 cutoff but
	// before the 03-15 expiration.
	ref := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	reqs, err := GenerateRequests(def, ref)
	suite.Require().NoError(err)

	for _, req := range reqs {
		suite.Equal(time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), req.EndTime)
	}
}

func (suite *CalendarTestSuite) TestGenerateRequestsEmptyBasket() {
	def := Predefined()["index"]
	def.Symbols = nil

	reqs, err := GenerateRequests(def, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Empty(reqs)
}

func (suite *CalendarTestSuite) TestGenerateRequestsOneRequestPerSymbol() {
	for name, def := range Predefined() {
		ref := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

		reqs, err := GenerateRequests(def, ref)
		suite.Require().NoError(err, "basket %s", name)
		suite.Len(reqs, len(def.Symbols), "basket %s", name)

		for _, req := range reqs {
			suite.False(req.EndTime.After(ref), "basket %s end time past reference", name)
		}
	}
}

func (suite *CalendarTestSuite) TestRollPrecedesExpirationByOffset() {
	for _, def := range Predefined() {
		exp, err := def.NextExpiration(time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC))
		suite.Require().NoError(err)

		roll := def.RollDate(exp)
		suite.Equal(float64(def.RollOffsetDays*24), exp.Sub(roll).Hours())
	}
}

func (suite *CalendarTestSuite) TestYearSuffixMatchesExpirationYear() {
	def := Predefined()["index"]
	ref := time.Date(2029, time.December, 25, 0, 0, 0, 0, time.UTC)

	exp, err := def.NextExpiration(ref)
	suite.Require().NoError(err)
	suite.Equal(2030, exp.Year())

	ticker := LocalTicker("ES", exp)
	suite.Equal(byte('0'), ticker[len(ticker)-1])
}
