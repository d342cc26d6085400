package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"forum/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServer upgrades one connection, writes frames and closes normally.
func feedServer(t *testing.T, frames ...[]byte) (*httptest.Server, <-chan http.Header) {
	t.Helper()
	headers := make(chan http.Header, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		// Wait for the client to close.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv, headers
}

func encode(t *testing.T, eventType string, actor uint) []byte {
	t.Helper()
	ev, err := notifications.NewEvent(eventType, actor, map[string]any{"postId": 7})
	require.NoError(t, err)
	raw, err := ev.Encode()
	require.NoError(t, err)
	return raw
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWatcher_PrintsFilteredEvents(t *testing.T) {
	srv, headers := feedServer(t,
		encode(t, notifications.EventPostCreated, 1),
		encode(t, notifications.EventPostLikeToggled, 2),
		[]byte("not json"),
		encode(t, notifications.EventPostDeleted, 0),
	)

	var out bytes.Buffer
	w := &watcher{
		url:    wsURL(srv),
		header: http.Header{"Authorization": []string{"Bearer abc"}},
		filter: parseFilter("post_created, post_deleted"),
		out:    &out,
	}
	seen, err := w.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, seen)

	assert.Equal(t, "Bearer abc", (<-headers).Get("Authorization"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "post_created")
	assert.Contains(t, lines[0], "user 1")
	assert.Equal(t, "? not json", lines[1])
	assert.Contains(t, lines[2], "anonymous")
}

func TestWatcher_StopsAtLimit(t *testing.T) {
	srv, _ := feedServer(t,
		encode(t, notifications.EventCommentCreated, 1),
		encode(t, notifications.EventCommentCreated, 2),
		encode(t, notifications.EventCommentCreated, 3),
	)

	var out bytes.Buffer
	w := &watcher{url: wsURL(srv), filter: parseFilter(""), limit: 2, out: &out}
	seen, err := w.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestWatcher_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := &watcher{url: wsURL(srv), out: &bytes.Buffer{}}
	_, err := w.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestParseFilter(t *testing.T) {
	assert.Empty(t, parseFilter(""))
	assert.Equal(t, map[string]bool{"a": true, "b": true}, parseFilter(" a,,b "))
}
