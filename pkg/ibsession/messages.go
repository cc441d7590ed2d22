package ibsession

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

const (
	apiPrefix     = "API\x00"
	clientVersion = "157"

	// Outgoing client message ids.
	msgReqHistoricalData = 20
	msgStartAPI          = 71

	// Incoming server message ids.
	msgErrMsg         = 4
	msgNextValidID    = 9
	msgHistoricalData = 17

	startAPIVersion          = "2"
	reqHistoricalDataVersion = "6"

	endTimeLayout     = "20060102 15:04:05"
	barTimeLayout     = "20060102 15:04:05"
	barDateOnlyLayout = "20060102"
)

// writeFrame sends one length-prefixed message: a 4-byte big-endian
// payload size followed by the fields joined with NUL separators, each
// field NUL-terminated.
func writeFrame(w io.Writer, fields ...string) error {
	payload := []byte(strings.Join(fields, "\x00") + "\x00")

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, uint32(len(payload))); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, "failed to encode frame size", err)
	}

	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, "failed to write frame", err)
	}

	return nil
}

// readFrame reads one length-prefixed message and splits its payload
// into fields.
func readFrame(r io.Reader) ([]string, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, err
	}

	if size == 0 {
		return nil, errors.New(errors.ErrCodeDecodeFailed, "zero-length frame")
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	fields := strings.Split(strings.TrimSuffix(string(payload), "\x00"), "\x00")

	return fields, nil
}

func startAPIFields(clientID int) []string {
	return []string{
		strconv.Itoa(msgStartAPI),
		startAPIVersion,
		strconv.Itoa(clientID),
		"", // optional capabilities
	}
}

func historicalDataFields(reqID int, c types.Contract, end time.Time, duration, barSize, whatToShow string, useRTH bool) []string {
	return []string{
		strconv.Itoa(msgReqHistoricalData),
		reqHistoricalDataVersion,
		strconv.Itoa(reqID),
		"0", // conId
		c.Symbol,
		c.SecType,
		"",  // lastTradeDateOrContractMonth
		"0", // strike
		"",  // right
		"",  // multiplier
		c.Exchange,
		"", // primaryExchange
		c.Currency,
		c.LocalSymbol,
		"",  // tradingClass
		"0", // includeExpired
		end.Format(endTimeLayout),
		barSize,
		duration,
		boolField(useRTH),
		whatToShow,
		"1", // formatDate
		"0", // keepUpToDate
		"",  // chartOptions
	}
}

func boolField(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// parseNextValidID decodes fields of a NEXT_VALID_ID payload
// (version, orderID), excluding the message id.
func parseNextValidID(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, errors.Newf(errors.ErrCodeDecodeFailed, "next valid id: expected 2 fields, got %d", len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDecodeFailed, "next valid id: invalid order id", err)
	}

	return id, nil
}

// parseErrMsg decodes fields of an ERR_MSG payload (version, id,
// errorCode, errorMsg), excluding the message id.
func parseErrMsg(fields []string) (reqID int, code int, message string, err error) {
	if len(fields) < 4 {
		return 0, 0, "", errors.Newf(errors.ErrCodeDecodeFailed, "error message: expected 4 fields, got %d", len(fields))
	}

	reqID, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, "", errors.Wrap(errors.ErrCodeDecodeFailed, "error message: invalid request id", err)
	}

	code, err = strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, "", errors.Wrap(errors.ErrCodeDecodeFailed, "error message: invalid error code", err)
	}

	return reqID, code, fields[3], nil
}

// parseHistoricalData decodes fields of a HISTORICAL_DATA payload
// (version, reqID, startDate, endDate, itemCount, then 8 fields per
// bar), excluding the message id.
func parseHistoricalData(fields []string) (int, []types.Bar, error) {
	if len(fields) < 5 {
		return 0, nil, errors.Newf(errors.ErrCodeDecodeFailed, "historical data: expected at least 5 fields, got %d", len(fields))
	}

	reqID, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeDecodeFailed, "historical data: invalid request id", err)
	}

	count, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeDecodeFailed, "historical data: invalid item count", err)
	}

	const fieldsPerBar = 8

	items := fields[5:]
	if len(items) < count*fieldsPerBar {
		return 0, nil, errors.Newf(errors.ErrCodeDecodeFailed, "historical data: expected %d bar fields, got %d", count*fieldsPerBar, len(items))
	}

	bars := make([]types.Bar, 0, count)

	for i := 0; i < count; i++ {
		bar, err := parseBar(items[i*fieldsPerBar : (i+1)*fieldsPerBar])
		if err != nil {
			return 0, nil, err
		}

		bars = append(bars, bar)
	}

	return reqID, bars, nil
}

func parseBar(fields []string) (types.Bar, error) {
	t, err := parseBarTime(fields[0])
	if err != nil {
		return types.Bar{}, err
	}

	open, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid open", err)
	}

	high, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid high", err)
	}

	low, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid low", err)
	}

	closePrice, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid close", err)
	}

	volume, err := decimal.NewFromString(fields[5])
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid volume", err)
	}

	wap, err := decimal.NewFromString(fields[6])
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid wap", err)
	}

	barCount, err := strconv.Atoi(fields[7])
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDecodeFailed, "bar: invalid bar count", err)
	}

	return types.Bar{
		Time:     t,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		WAP:      wap,
		BarCount: barCount,
	}, nil
}

// parseBarTime accepts the timestamp formats the gateway emits: either
// "yyyymmdd HH:MM:SS", a bare "yyyymmdd" for daily bars, or a unix
// epoch in seconds.
func parseBarTime(s string) (time.Time, error) {
	if t, err := time.Parse(barTimeLayout, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse(barDateOnlyLayout, s); err == nil {
		return t, nil
	}

	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}

	return time.Time{}, errors.New(errors.ErrCodeDecodeFailed, fmt.Sprintf("bar: unrecognized timestamp %q", s))
}
