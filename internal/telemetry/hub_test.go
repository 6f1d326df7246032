package telemetry_test

import (
	"context"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/open-eyes/handheld/internal/pipeline"
	"github.com/open-eyes/handheld/internal/state"
	"github.com/open-eyes/handheld/internal/telemetry"
)

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestHubBroadcastsEnvelopeToSubscriber(t *testing.T) {
	hub := telemetry.NewHub(":0", silentLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	u, err := url.Parse(wsURL)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // let the server register the client

	hub.Broadcast(telemetry.Envelope{FlowID: "abc123"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "abc123")
}

func TestHubWatchForwardsPipelineDecisions(t *testing.T) {
	hub := telemetry.NewHub(":0", silentLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // let the server register the client

	decisions := make(chan pipeline.Decision, 1)
	ts := &state.TemporalState{}
	decisions <- pipeline.Decision{FlowID: "flow-1", State: ts}
	close(decisions)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	hub.Watch(ctx, decisions)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "flow-1")
}
