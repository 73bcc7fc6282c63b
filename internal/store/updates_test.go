package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type scriptedConn struct {
	payloads [][]byte
	index    int
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	if c.index >= len(c.payloads) {
		return 0, nil, errors.New("connection closed")
	}
	payload := c.payloads[c.index]
	c.index++
	return 1, payload, nil
}

func (c *scriptedConn) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeedDeliversUpdatesAndConnectivity(t *testing.T) {
	feed := NewFeed("ws://example/ws", discardLogger(), time.Millisecond, time.Millisecond)
	dials := 0
	feed.dial = func(ctx context.Context, url string) (wsConn, error) {
		dials++
		if dials > 1 {
			return nil, errors.New("stop after first connection")
		}
		return &scriptedConn{payloads: [][]byte{
			[]byte(`{"kind":"task_updated","task_id":"t1","stage":"test"}`),
			[]byte(`not json`),
			[]byte(`{"kind":"stage_changed","task_id":"t1","stage":"review"}`),
		}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go feed.Run(ctx)

	var got []Update
	timeout := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case update := <-feed.Updates():
			got = append(got, update)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	cancel()

	if got[0].Kind != KindConnected {
		t.Fatalf("first event = %+v, want connected", got[0])
	}
	if got[1].Kind != "task_updated" || got[1].TaskID != "t1" || got[1].Stage != "test" {
		t.Fatalf("update = %+v", got[1])
	}
	if got[2].Kind != "stage_changed" || got[2].Stage != "review" {
		t.Fatalf("bad payload should be skipped, got %+v", got[2])
	}
	if got[3].Kind != KindDisconnected {
		t.Fatalf("last event = %+v, want disconnected", got[3])
	}
}

func TestFeedStopsOnContextCancel(t *testing.T) {
	feed := NewFeed("ws://example/ws", discardLogger(), time.Hour, time.Hour)
	feed.dial = func(ctx context.Context, url string) (wsConn, error) {
		return nil, errors.New("unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}

func TestNextWaitCapsAtMax(t *testing.T) {
	feed := NewFeed("ws://x", discardLogger(), time.Second, 4*time.Second)
	wait := feed.minWait
	for i := 0; i < 10; i++ {
		wait = feed.nextWait(wait)
		if wait > feed.maxWait {
			t.Fatalf("wait %s exceeds max %s", wait, feed.maxWait)
		}
	}
	if wait != feed.maxWait {
		t.Fatalf("wait should settle at max, got %s", wait)
	}
}
