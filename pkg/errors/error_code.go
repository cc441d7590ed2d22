package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102

	// Basket/calendar errors (200-299)
	ErrCodeUnknownBasket       ErrorCode = 200
	ErrCodeInvalidBasket       ErrorCode = 201
	ErrCodeUnknownDayRule      ErrorCode = 202
	ErrCodeNoExpirationFound   ErrorCode = 203
	ErrCodeBasketConfigInvalid ErrorCode = 204

	// Session errors (300-399)
	ErrCodeConnectFailed    ErrorCode = 300
	ErrCodeHandshakeFailed  ErrorCode = 301
	ErrCodeEncodeFailed     ErrorCode = 302
	ErrCodeDecodeFailed     ErrorCode = 303
	ErrCodeSessionClosed    ErrorCode = 304
	ErrCodeRequestFailed    ErrorCode = 305
	ErrCodeRequestTimeout   ErrorCode = 306
	ErrCodeDisconnectFailed ErrorCode = 307

	// Writer errors (400-499)
	ErrCodeWriterOpenFailed  ErrorCode = 400
	ErrCodeWriterWriteFailed ErrorCode = 401
	ErrCodeWriterCloseFailed ErrorCode = 402
	ErrCodeWriterInitFailed  ErrorCode = 403

	// Driver errors (500-599)
	ErrCodeDriverNotReady     ErrorCode = 500
	ErrCodeDriverFatalError   ErrorCode = 501
	ErrCodeDriverInvalidState ErrorCode = 502
)
