package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/talentbase-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const JobSendEmail = "send_email"

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

const deliveryTimeout = 30 * time.Second

// Job is a unit of asynchronous work handed to the worker pool.
type Job struct {
	Name    string
	Payload Message
}

type Config struct {
	From      string
	Workers   int
	QueueSize int
}

// Dispatcher renders and delivers messages on a fixed pool of workers.
// Submit never blocks: when the queue is full the job is dropped.
type Dispatcher struct {
	renderer  *Renderer
	transport Transport
	from      string
	workers   int
	queue     chan Job

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
	cancel context.CancelFunc
}

func NewDispatcher(cfg Config, renderer *Renderer, transport Transport) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Dispatcher{
		renderer:  renderer,
		transport: transport,
		from:      cfg.From,
		workers:   cfg.Workers,
		queue:     make(chan Job, cfg.QueueSize),
	}
}

// Start launches the workers. They run until Shutdown or until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		worker := i
		g.Go(func() error {
			d.work(gctx, worker)
			return nil
		})
	}

	d.mu.Lock()
	d.group = g
	d.cancel = cancel
	d.mu.Unlock()

	logger.Info("Notification dispatcher started", map[string]interface{}{
		"workers":    d.workers,
		"queue_size": cap(d.queue),
	})
}

// Send queues msg for delivery and returns immediately.
func (d *Dispatcher) Send(ctx context.Context, msg Message) {
	if err := d.Submit(Job{Name: JobSendEmail, Payload: msg}); err != nil {
		logger.Warn("Notification dropped", map[string]interface{}{
			"template_id": msg.TemplateID,
			"recipients":  len(msg.Recipients),
			"reason":      err.Error(),
		})
	}
}

func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	g, cancel := d.group, d.cancel
	d.mu.Unlock()

	if g == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		cancel()
		logger.Info("Notification dispatcher stopped", nil)
		return err
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("notification dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			d.process(ctx, worker, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, worker int, job Job) {
	switch job.Name {
	case JobSendEmail:
		if err := d.deliver(ctx, job.Payload); err != nil {
			logger.Error("Failed to deliver notification", err, map[string]interface{}{
				"worker":      worker,
				"template_id": job.Payload.TemplateID,
				"recipients":  len(job.Payload.Recipients),
			})
		}
	default:
		logger.Warn("Unknown notification job", map[string]interface{}{
			"worker": worker,
			"job":    job.Name,
		})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return errors.New("message has no recipients")
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	rendered, err := d.renderer.Render(ctx, msg.TemplateID, msg.Context)
	if err != nil {
		return err
	}

	email := Email{
		From:    d.from,
		To:      msg.Recipients,
		Subject: msg.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}
	if err := d.transport.Deliver(ctx, email); err != nil {
		return err
	}

	logger.Debug("Notification delivered", map[string]interface{}{
		"template_id": msg.TemplateID,
		"recipients":  len(msg.Recipients),
	})
	return nil
}
