// Package ibsession provides the remote market-data session: the
// interface the request driver consumes, the legacy wire codec, and a
// TCP client adapter for a TWS/Gateway endpoint.
package ibsession

import (
	"time"

	"github.com/rxtech-lab/argo-snapshot/internal/types"
)

// Session is the outbound surface the driver calls into.
type Session interface {
	// IssueHistoricalRequest sends one bounded historical-data query.
	// Bars and completion arrive asynchronously through the Handler.
	IssueHistoricalRequest(reqID int, contract types.Contract, end time.Time, duration, barSize, whatToShow string, useRTH bool) error
	// Disconnect tears down the session. Called exactly once by the
	// driver when it finalizes.
	Disconnect() error
}

// Handler is the fixed callback surface the driver implements. The
// session delivers callbacks one at a time from a single goroutine, so
// implementations need no internal locking.
type Handler interface {
	// OnSessionReady reports the connection is usable and carries the
	// first valid request id.
	OnSessionReady(nextValidID int)
	// OnBar delivers one historical bar for the given request.
	OnBar(reqID int, bar types.Bar)
	// OnRequestComplete reports that all bars for the request have
	// been delivered.
	OnRequestComplete(reqID int)
	// OnError reports a session error. reqID is -1 for errors not tied
	// to a request.
	OnError(reqID int, code int, message string)
}
