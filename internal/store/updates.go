package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
)

// Update is one push event from the server's websocket feed.
type Update struct {
	Kind   string `json:"kind"`
	TaskID string `json:"task_id"`
	Stage  string `json:"stage"`
}

// Connectivity events bracket the update stream so the UI can show a
// reconnecting indicator instead of silently going stale.
const (
	KindConnected    = "connected"
	KindDisconnected = "disconnected"
)

// Feed maintains a websocket subscription to the server's update
// stream, reconnecting with jittered backoff. Received updates and
// connectivity transitions are delivered on Updates until the context
// is cancelled.
type Feed struct {
	url     string
	logger  *slog.Logger
	minWait time.Duration
	maxWait time.Duration
	updates chan Update

	dial func(ctx context.Context, url string) (wsConn, error)
}

type wsConn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

func NewFeed(url string, logger *slog.Logger, minWait, maxWait time.Duration) *Feed {
	if minWait <= 0 {
		minWait = time.Second
	}
	if maxWait < minWait {
		maxWait = minWait
	}
	return &Feed{
		url:     url,
		logger:  logger,
		minWait: minWait,
		maxWait: maxWait,
		updates: make(chan Update, 16),
		dial: func(ctx context.Context, url string) (wsConn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
	}
}

func (f *Feed) Updates() <-chan Update {
	return f.updates
}

// Run blocks until ctx is done, keeping the subscription alive across
// connection failures.
func (f *Feed) Run(ctx context.Context) error {
	defer close(f.updates)

	wait := f.minWait
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := f.dial(ctx, f.url)
		if err != nil {
			f.logger.Warn("update feed dial failed", "url", f.url, "error", err)
			if !f.sleep(ctx, wait) {
				return nil
			}
			wait = f.nextWait(wait)
			continue
		}

		wait = f.minWait
		f.deliver(ctx, Update{Kind: KindConnected})
		f.readLoop(ctx, conn)
		f.deliver(ctx, Update{Kind: KindDisconnected})

		if !f.sleep(ctx, wait) {
			return nil
		}
		wait = f.nextWait(wait)
	}
}

func (f *Feed) readLoop(ctx context.Context, conn wsConn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn("update feed read failed", "error", err)
			}
			return
		}
		var update Update
		if err := json.Unmarshal(payload, &update); err != nil {
			f.logger.Warn("update feed bad payload", "error", err)
			continue
		}
		f.deliver(ctx, update)
	}
}

func (f *Feed) deliver(ctx context.Context, update Update) {
	select {
	case f.updates <- update:
	case <-ctx.Done():
	}
}

func (f *Feed) sleep(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextWait doubles the backoff up to maxWait with up to 25% jitter so a
// fleet of clients does not reconnect in lockstep.
func (f *Feed) nextWait(wait time.Duration) time.Duration {
	next := wait * 2
	if next > f.maxWait {
		next = f.maxWait
	}
	jitter := time.Duration(rand.Int63n(int64(next)/4 + 1))
	if next+jitter > f.maxWait {
		return f.maxWait
	}
	return next + jitter
}
