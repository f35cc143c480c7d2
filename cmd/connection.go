// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection carries the secondary link's byte stream over
// WebSocket messages. Each Write is sent as one binary message.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool // Track if connection has failed/closed

	writeMu sync.Mutex
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// Bridges may relay UART bytes as either message type
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, mode *serial.Mode) (Connection, error) {
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("LINKSHELL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// Kept after the first prompt so reconnects never prompt again
var cachedPassword string

// OpenConnection opens the secondary link, WebSocket or serial, from the
// resolved settings
func OpenConnection() (Connection, string, error) {
	link := settings.Link

	if link.URL != "" {
		password := cachedPassword
		if link.Username != "" && password == "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
			cachedPassword = password
		}

		conn, err := OpenWebSocketConnection(link.URL, link.Username, password, link.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		logger.Info().Str("url", link.URL).Msg("secondary link open")
		return conn, fmt.Sprintf("WebSocket: %s", link.URL), nil
	}

	if link.Port != "" {
		mode, err := link.SerialMode()
		if err != nil {
			return nil, "", err
		}

		conn, err := OpenSerialConnection(link.Port, mode)
		if err != nil {
			return nil, "", err
		}

		logger.Info().Str("port", link.Port).Int("baud", link.Baud).Str("frame", link.Describe()).Msg("secondary link open")
		return conn, fmt.Sprintf("Serial: %s @ %d baud %s", link.Port, link.Baud, link.Describe()), nil
	}

	return nil, "", errors.New("either --port or --url must be specified")
}

// isFatalReadError reports whether a read error means the link is gone
// rather than a transient serial hiccup
func isFatalReadError(err error) bool {
	if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
		return true
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
		return true
	}
	return false
}

// terminalLink is the operator side: a terminal plus how to put it back
type terminalLink struct {
	*console.Terminal
	echo    bool
	raw     bool
	info    string
	restore func()
}

// OpenTerminal opens the operator link. A serial terminal port, or stdin in
// raw mode when it is a TTY, gets local echo and CRLF output; piped stdin
// gets neither.
func OpenTerminal() (*terminalLink, error) {
	t := settings.Terminal

	if t.Port != "" {
		mode := &serial.Mode{
			BaudRate: t.Baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
		conn, err := OpenSerialConnection(t.Port, mode)
		if err != nil {
			return nil, err
		}

		return &terminalLink{
			Terminal: console.NewTerminal(conn, conn, true),
			echo:     true,
			raw:      true,
			info:     fmt.Sprintf("Serial: %s @ %d baud", t.Port, t.Baud),
			restore:  func() { conn.Close() },
		}, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return &terminalLink{
			Terminal: console.NewTerminal(os.Stdin, os.Stdout, false),
			info:     "stdin",
			restore:  func() {},
		}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}

	return &terminalLink{
		Terminal: console.NewTerminal(os.Stdin, os.Stdout, true),
		echo:     true,
		raw:      true,
		info:     "TTY",
		restore:  func() { term.Restore(fd, state) },
	}, nil
}
