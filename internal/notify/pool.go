package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const deliverTimeout = 30 * time.Second

type job struct {
	id  string
	msg Message
}

// Pool delivers messages in-process on a fixed number of workers.
// Delivery runs detached from the dispatching request's context.
type Pool struct {
	d     Deliverer
	queue chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(d Deliverer, workers, size int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = 256
	}
	p := &Pool{d: d, queue: make(chan job, size)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) Dispatch(_ context.Context, m Message) Receipt {
	id := uuid.NewString()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		slog.Warn("notification dropped: pool closed", "id", id, "channel", m.Channel, "ref", m.Ref)
		return Receipt{ID: id}
	}

	select {
	case p.queue <- job{id: id, msg: m}:
		return Receipt{ID: id, Accepted: true}
	default:
		slog.Warn("notification dropped: queue full", "id", id, "channel", m.Channel, "ref", m.Ref)
		return Receipt{ID: id}
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := p.d.Deliver(ctx, j.msg); err != nil {
			slog.Error("notification failed", "id", j.id, "channel", j.msg.Channel, "ref", j.msg.Ref, "error", err.Error())
		}
		cancel()
	}
}

// Close stops accepting messages and waits for queued ones to be attempted.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
