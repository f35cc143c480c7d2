// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeLink_ReceivesMessage(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()

	go peer.Write([]byte("ready\x00"))

	var out bytes.Buffer
	code := probeLink(local, &out, "", time.Second)
	require.Equal(t, probeOK, code, out.String())
	require.Contains(t, out.String(), `Text: "ready"`)
}

func TestProbeLink_SendsFirst(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := peer.Read(buf)
		got <- buf[:n]
		peer.Write([]byte("pong\x00"))
	}()

	var out bytes.Buffer
	code := probeLink(local, &out, "ping 42", time.Second)
	require.Equal(t, probeOK, code, out.String())
	require.Equal(t, []byte("ping 42\x00"), <-got)
	require.Contains(t, out.String(), "Sent.")
}

func TestProbeLink_Timeout(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()

	var out bytes.Buffer
	code := probeLink(local, &out, "", 20*time.Millisecond)
	require.Equal(t, probeTimedOut, code)
	require.Contains(t, out.String(), "TIMEOUT")
}

func TestProbeLink_PeerCloses(t *testing.T) {
	local, peer := net.Pipe()
	peer.Close()

	var out bytes.Buffer
	code := probeLink(local, &out, "", time.Second)
	require.Equal(t, probeLinkFailed, code)
	require.Contains(t, out.String(), io.EOF.Error())
}
