package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// drainBackoff is how long the drain loop waits between connectivity checks
// while the network is still down.
const drainBackoff = 1 * time.Second

type queueResult struct {
	envelope Envelope
	err      error
}

// queuedCall is a re-executable request waiting for connectivity. The result
// channel is buffered so the drain loop never blocks on an abandoned caller.
type queuedCall struct {
	id       uuid.UUID
	method   string
	endpoint string
	body     any
	opts     *requestOptions
	result   chan queueResult
}

// enqueue appends the call to the offline queue, ensures a single drain loop
// is running, and blocks until this call's own execution settles.
func (c *Client) enqueue(ctx context.Context, method, endpoint string, body any, ro *requestOptions) (Envelope, error) {
	item := &queuedCall{
		id:       uuid.New(),
		method:   method,
		endpoint: endpoint,
		body:     body,
		opts:     ro,
		result:   make(chan queueResult, 1),
	}

	c.mu.Lock()
	c.queue = append(c.queue, item)
	depth := len(c.queue)
	startDrain := !c.draining
	if startDrain {
		c.draining = true
	}
	c.mu.Unlock()

	slog.Info("Request queued for offline retry", "id", item.id, "method", method, "endpoint", endpoint, "depth", depth)

	if startDrain {
		go c.drain()
	}

	select {
	case res := <-item.result:
		return res.envelope, res.err
	case <-ctx.Done():
		// The queued execution still runs to completion; only this caller
		// stops waiting for it.
		return Envelope{}, ctx.Err()
	}
}

// drain executes queued calls strictly in FIFO order, one at a time. It polls
// connectivity with a fixed backoff while offline, pops each item before
// executing it, and stops once the queue is empty. At most one drain loop
// runs at a time, guarded by the draining flag.
func (c *Client) drain() {
	ctx := context.Background()

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if !c.checker.Online() {
			c.clock.Sleep(drainBackoff)
			continue
		}

		c.mu.Lock()
		item := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		envelope, err := c.dispatch(ctx, item.method, item.endpoint, item.body, item.opts, false)
		if err != nil {
			// The single execution's outcome is final: the error resolves
			// this caller's result and is otherwise dropped.
			slog.Warn("Queued request failed", "id", item.id, "method", item.method, "endpoint", item.endpoint, "error", err)
		}
		item.result <- queueResult{envelope: envelope, err: err}
	}
}

// QueueDepth reports how many requests are waiting for connectivity.
func (c *Client) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
