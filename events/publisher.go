package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

// Sink delivers a single event to its destination.
type Sink interface {
	Send(ctx context.Context, ev domain.Event) error
}

// Options tunes the publisher worker pool. Zero values select defaults.
type Options struct {
	Workers        int
	Buffer         int
	SendTimeout    time.Duration
	HandoffTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
	if o.HandoffTimeout < 0 {
		o.HandoffTimeout = 0
	} else if o.HandoffTimeout == 0 {
		o.HandoffTimeout = 15 * time.Millisecond
	}
	return o
}

// Publisher hands events to a fixed pool of workers that forward them to a
// Sink. Publish never blocks the caller for longer than the handoff timeout;
// events that cannot be queued in time are dropped and logged.
type Publisher struct {
	sink Sink
	opts Options
	log  *log.Entry

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.Event
	wg     sync.WaitGroup
}

func NewPublisher(sink Sink, opts Options) *Publisher {
	opts = opts.withDefaults()
	p := &Publisher{
		sink: sink,
		opts: opts,
		log:  log.WithField("component", "events"),
		jobs: make(chan domain.Event, opts.Buffer),
	}
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Infof("event publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		opts.Workers, opts.Buffer, opts.SendTimeout, opts.HandoffTimeout)
	return p
}

func (p *Publisher) worker(id int) {
	defer p.wg.Done()
	for ev := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.SendTimeout)
		err := p.sink.Send(ctx, ev)
		cancel()
		if err != nil {
			p.log.WithFields(log.Fields{
				"event":  ev.Type,
				"id":     ev.ID,
				"entity": ev.EntityID,
				"worker": id,
			}).WithError(err).Error("event delivery failed")
		}
	}
}

// Publish queues ev for delivery.
func (p *Publisher) Publish(ev domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.WithField("event", ev.Type).Warn("publisher closed, event dropped")
		return
	}

	select {
	case p.jobs <- ev:
		return
	default:
	}
	if p.opts.HandoffTimeout > 0 {
		timer := time.NewTimer(p.opts.HandoffTimeout)
		defer timer.Stop()
		select {
		case p.jobs <- ev:
			return
		case <-timer.C:
		}
	}
	p.log.WithFields(log.Fields{"event": ev.Type, "id": ev.ID}).Warn("event buffer full, event dropped")
}

// Close stops accepting events and waits until queued ones are delivered.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
