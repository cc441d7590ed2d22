package ibsession

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-snapshot/internal/logger"
	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

// Synthesized when the transport drops underneath an open session.
// Matches the gateway's own connectivity-lost code so the fatality
// classifier treats both the same way.
const codeConnectionLost = 1100

// Client is a TCP Session adapter for a TWS/Gateway endpoint. All
// Handler callbacks are delivered sequentially from a single read-loop
// goroutine.
type Client struct {
	logger  *logger.Logger
	handler Handler

	mu     sync.Mutex // guards conn writes and the closed flag
	conn   net.Conn
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

var _ Session = (*Client)(nil)

// NewClient creates an unconnected client. The callback handler is
// bound at Connect time so the driver can be constructed against the
// client first.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		logger: log,
		done:   make(chan struct{}),
	}
}

// Connect dials the gateway, performs the version handshake, announces
// the client id, and starts the read loop delivering callbacks to
// handler. OnSessionReady fires once the gateway replies with the
// first valid request id.
func (c *Client) Connect(ctx context.Context, host string, port int, clientID int, handler Handler) error {
	if handler == nil {
		return errors.New(errors.ErrCodeMissingParameter, "handler is required")
	}

	c.handler = handler

	dialer := net.Dialer{}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeConnectFailed, err, "failed to dial %s", addr)
	}

	reader := bufio.NewReader(conn)

	serverVersion, serverTime, err := handshake(conn, reader)
	if err != nil {
		conn.Close()

		return err
	}

	c.logger.Info("Connected to gateway",
		zap.String("address", addr),
		zap.String("serverVersion", serverVersion),
		zap.String("serverTime", serverTime),
	)

	if err := writeFrame(conn, startAPIFields(clientID)...); err != nil {
		conn.Close()

		return errors.Wrap(errors.ErrCodeHandshakeFailed, "failed to announce client id", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(reader)

	return nil
}

// handshake sends the API prefix and client version, then reads the
// server's version and timestamp, both NUL-terminated.
func handshake(conn net.Conn, reader *bufio.Reader) (string, string, error) {
	buf := new(bytes.Buffer)
	buf.WriteString(apiPrefix)

	if err := binary.Write(buf, binary.BigEndian, uint32(len(clientVersion))); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeHandshakeFailed, "failed to encode version length", err)
	}

	buf.WriteString(clientVersion)

	if _, err := conn.Write(buf.Bytes()); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeHandshakeFailed, "failed to send version", err)
	}

	serverVersion, err := readNulString(reader)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeHandshakeFailed, "failed to read server version", err)
	}

	serverTime, err := readNulString(reader)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeHandshakeFailed, "failed to read server time", err)
	}

	return serverVersion, serverTime, nil
}

func readNulString(reader *bufio.Reader) (string, error) {
	s, err := reader.ReadString(0)
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(s, "\x00"), nil
}

// IssueHistoricalRequest sends one REQ_HISTORICAL_DATA message.
func (c *Client) IssueHistoricalRequest(reqID int, contract types.Contract, end time.Time, duration, barSize, whatToShow string, useRTH bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.closed {
		return errors.New(errors.ErrCodeSessionClosed, "session not connected")
	}

	c.logger.Debug("Issuing historical data request",
		zap.Int("reqID", reqID),
		zap.String("ticker", contract.LocalSymbol),
		zap.Time("end", end),
		zap.String("duration", duration),
		zap.String("barSize", barSize),
	)

	fields := historicalDataFields(reqID, contract, end, duration, barSize, whatToShow, useRTH)

	if err := writeFrame(c.conn, fields...); err != nil {
		return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to send request %d", reqID)
	}

	return nil
}

// Disconnect closes the transport and stops the read loop. Safe to
// call repeatedly.
func (c *Client) Disconnect() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		conn := c.conn
		c.mu.Unlock()

		close(c.done)

		if conn != nil {
			closeErr = conn.Close()
		}

		c.logger.Info("Disconnected from gateway")
	})

	if closeErr != nil {
		return errors.Wrap(errors.ErrCodeDisconnectFailed, "failed to close connection", closeErr)
	}

	return nil
}

// readLoop decodes inbound frames and dispatches callbacks until the
// transport is closed. A read failure on a live session is surfaced as
// a connectivity-lost error.
func (c *Client) readLoop(reader *bufio.Reader) {
	for {
		fields, err := readFrame(reader)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.handler.OnError(-1, codeConnectionLost, fmt.Sprintf("connection lost: %v", err))

			return
		}

		c.dispatch(fields)
	}
}

func (c *Client) dispatch(fields []string) {
	if len(fields) == 0 {
		return
	}

	msgID, err := strconv.Atoi(fields[0])
	if err != nil {
		c.logger.Debug("Ignoring unparseable message", zap.String("id", fields[0]))

		return
	}

	switch msgID {
	case msgNextValidID:
		id, err := parseNextValidID(fields[1:])
		if err != nil {
			c.handler.OnError(-1, codeConnectionLost, err.Error())

			return
		}

		c.handler.OnSessionReady(id)

	case msgErrMsg:
		reqID, code, message, err := parseErrMsg(fields[1:])
		if err != nil {
			c.handler.OnError(-1, codeConnectionLost, err.Error())

			return
		}

		c.handler.OnError(reqID, code, message)

	case msgHistoricalData:
		reqID, bars, err := parseHistoricalData(fields[1:])
		if err != nil {
			c.handler.OnError(-1, codeConnectionLost, err.Error())

			return
		}

		for _, bar := range bars {
			c.handler.OnBar(reqID, bar)
		}

		c.handler.OnRequestComplete(reqID)

	default:
		c.logger.Debug("Ignoring message", zap.String("id", fields[0]))
	}
}
