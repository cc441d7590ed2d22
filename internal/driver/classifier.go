package driver

// Gateway error-code bands. Codes 2000-9999 are informational warnings
// the gateway emits routinely (farm connectivity notices and the like)
// and never end a run.
const (
	warningBandLow  = 2000
	warningBandHigh = 10000

	// Emitted when the gateway substitutes delayed data for a
	// real-time subscription.
	codeDelayedDataSubstituted = 10167
)

// FatalClassifier decides whether a session error code ends the run.
// Injected into the driver so deployments can swap the policy.
type FatalClassifier func(code int) bool

// NewFatalClassifier returns the default policy: warning-band codes are
// never fatal, delayed-data substitution is fatal only when real-time
// data was strictly required, everything else is fatal.
func NewFatalClassifier(requireRealtime bool) FatalClassifier {
	return func(code int) bool {
		if code >= warningBandLow && code < warningBandHigh {
			return false
		}

		if code == codeDelayedDataSubstituted {
			return requireRealtime
		}

		return true
	}
}
