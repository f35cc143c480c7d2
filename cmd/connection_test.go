// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// newBridgeServer starts a WebSocket endpoint that sends greeting, then
// passes every received message to handle
func newBridgeServer(t *testing.T, greeting [][]byte, handle func(*websocket.Conn, []byte)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); ok && (user != "operator" || pass != "secret") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, msg := range greeting {
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if handle != nil {
				handle(conn, data)
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketConnection_ReadSplitsMessages(t *testing.T) {
	url := newBridgeServer(t, [][]byte{[]byte("hello\x00"), []byte("ok\x00")}, nil)

	conn, err := OpenWebSocketConnection(url, "", "", false)
	require.NoError(t, err)
	defer conn.Close()

	// A small buffer must still see every byte in order
	var got []byte
	buf := make([]byte, 4)
	for len(got) < 9 {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, []byte("hello\x00ok\x00"), got)
}

func TestWebSocketConnection_WriteIsOneMessage(t *testing.T) {
	received := make(chan []byte, 1)
	url := newBridgeServer(t, nil, func(_ *websocket.Conn, data []byte) {
		received <- data
	})

	conn, err := OpenWebSocketConnection(url, "operator", "secret", false)
	require.NoError(t, err)
	defer conn.Close()

	n, err := conn.Write([]byte("foo bar\x00"))
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte("foo bar\x00"), <-received)
}

func TestWebSocketConnection_BadCredentials(t *testing.T) {
	url := newBridgeServer(t, nil, nil)

	_, err := OpenWebSocketConnection(url, "operator", "wrong", false)
	require.ErrorContains(t, err, "HTTP 401")
}

func TestWebSocketConnection_ClosedIsFatal(t *testing.T) {
	url := newBridgeServer(t, nil, func(c *websocket.Conn, _ []byte) {
		c.Close()
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0})
	require.NoError(t, err)

	buf := make([]byte, 8)
	_, err = conn.Read(buf)
	require.Error(t, err)

	_, err = conn.Read(buf)
	require.ErrorIs(t, err, ErrConnectionClosed)
	require.True(t, isFatalReadError(err))
}

func TestOpenWebSocketConnection_RejectsScheme(t *testing.T) {
	_, err := OpenWebSocketConnection("http://localhost/ws", "", "", false)
	require.ErrorContains(t, err, "unsupported URL scheme")
}

func TestIsFatalReadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"websocket closed", ErrConnectionClosed, true},
		{"wrapped closed", fmt.Errorf("read: %w", ErrConnectionClosed), true},
		{"eof", io.EOF, true},
		{"other port error", &serial.PortError{}, false},
		{"transient", errors.New("resource temporarily unavailable"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isFatalReadError(tt.err))
		})
	}
}

func TestOpenConnection_RequiresLink(t *testing.T) {
	defer func(c Config) { settings = c }(settings)
	settings = DefaultConfig()

	_, _, err := OpenConnection()
	require.ErrorContains(t, err, "--port or --url")
}
