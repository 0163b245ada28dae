// Package sender runs outbound Telegram calls on a small worker pool so slow
// deliveries and deferred cleanups never block update handling. Failed calls
// are logged and dropped; the transport layer does not retry.
package sender

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/elpekenin/docker-bot-tasks/core/logger"
	"log/slog"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	Workers   int
}

type job struct {
	ctx    context.Context
	action string
	delay  time.Duration
	run    func() error
}

// Dispatcher executes outbound Telegram calls asynchronously.
type Dispatcher struct {
	jobs chan job
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	d := &Dispatcher{
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue schedules the provided function for asynchronous execution.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	return d.EnqueueAfter(ctx, action, 0, run)
}

// EnqueueAfter schedules the function to run after the given delay. The delay
// is served inside a worker timer, not by blocking the caller.
func (d *Dispatcher) EnqueueAfter(ctx context.Context, action string, delay time.Duration, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}

	// jobs is never closed, so a send racing Close cannot panic.
	j := job{ctx: ctx, action: action, delay: delay, run: run}
	select {
	case d.jobs <- j:
		return nil
	case <-d.stop:
		return ErrQueueClosed
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, drains the queue and waits for in-flight work
// to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case j := <-d.jobs:
			d.execute(j)
		case <-d.stop:
			for {
				select {
				case j := <-d.jobs:
					d.execute(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) execute(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if j.delay > 0 {
		timer := time.NewTimer(j.delay)
		select {
		case <-timer.C:
		case <-d.stop:
			timer.Stop()
			// Run anyway on shutdown so scheduled cleanups are not lost.
		}
	}

	start := time.Now()
	if err := j.run(); err != nil {
		logger.Warn(ctx, "tg.sender", "send.fail",
			slog.String("action", j.action),
			slog.String("err", sanitizeErrorMessage(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return
	}
	logger.Debug(ctx, "tg.sender", "send.success",
		slog.String("action", j.action),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

// sanitizeErrorMessage prevents accidental leakage of Telegram bot tokens in logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
