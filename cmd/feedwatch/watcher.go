package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"forum/internal/notifications"

	"github.com/gorilla/websocket"
)

type watcher struct {
	url    string
	header http.Header
	filter map[string]bool
	limit  int
	out    io.Writer
}

// run streams events until ctx ends, the server closes the feed or limit
// matching events were printed.
func (w *watcher) run(ctx context.Context) (int, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		if resp != nil {
			return 0, fmt.Errorf("dial %s: %w (status %d)", w.url, err, resp.StatusCode)
		}
		return 0, fmt.Errorf("dial %s: %w", w.url, err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	seen := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return seen, nil
			}
			return seen, err
		}

		ev, err := notifications.DecodeEvent(data)
		if err != nil {
			_, _ = fmt.Fprintf(w.out, "? %s\n", data)
			continue
		}
		if len(w.filter) > 0 && !w.filter[ev.Type] {
			continue
		}
		if err := w.print(ev); err != nil {
			return seen, err
		}
		seen++
		if w.limit > 0 && seen >= w.limit {
			return seen, nil
		}
	}
}

func (w *watcher) print(ev *notifications.Event) error {
	actor := "anonymous"
	if ev.ActorID != 0 {
		actor = fmt.Sprintf("user %d", ev.ActorID)
	}
	_, err := fmt.Fprintf(w.out, "%s %-22s %-10s %s\n", ev.At.Format(time.RFC3339), ev.Type, actor, ev.Payload)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
