package types

import "time"

// Contract identifies a single futures contract on an exchange.
type Contract struct {
	// Symbol is the base symbol, e.g. "ES".
	Symbol string
	// LocalSymbol is the exchange-local ticker encoding base symbol,
	// month code and year digit, e.g. "ESH4".
	LocalSymbol string
	// SecType is the security type; always "FUT" here.
	SecType string
	// Exchange the contract trades on, e.g. "CME".
	Exchange string
	// Currency the contract is denominated in.
	Currency string
}

// FutureContract builds a futures contract for the given local symbol.
func FutureContract(symbol, localSymbol, exchange, currency string) Contract {
	return Contract{
		Symbol:      symbol,
		LocalSymbol: localSymbol,
		SecType:     "FUT",
		Exchange:    exchange,
		Currency:    currency,
	}
}

// FetchRequest describes one bounded historical-data query. Requests are
// immutable once created by the basket generator.
type FetchRequest struct {
	Contract Contract
	// EndTime is the query end timestamp; bars up to this instant are
	// returned, looking back Duration.
	EndTime time.Time
	// Duration is the lookback window in the session's wire format,
	// e.g. "1 D".
	Duration string
	// BarSize is the bar granularity in wire format, e.g. "1 min".
	BarSize string
	// WhatToShow selects the data series, e.g. "TRADES".
	WhatToShow string
	// UseRTH restricts bars to regular trading hours when true.
	UseRTH bool
}
