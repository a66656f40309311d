// Package schedule provides cancellable timing sources for drills.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Ticker delivers a tick every interval until stopped.
type Ticker struct {
	c    chan time.Time
	stop chan struct{}
	once sync.Once
}

// NewTicker starts a repeating tick source.
func NewTicker(interval time.Duration) *Ticker {
	t := &Ticker{
		c:    make(chan time.Time),
		stop: make(chan struct{}),
	}
	go t.run(interval)
	return t
}

// C returns the tick channel. It is closed after Stop.
func (t *Ticker) C() <-chan time.Time {
	return t.c
}

// Stop ends the tick source. It is safe to call more than once.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}

func (t *Ticker) run(interval time.Duration) {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	defer close(t.c)
	for {
		select {
		case <-t.stop:
			return
		case now := <-tk.C:
			select {
			case t.c <- now:
			case <-t.stop:
				return
			}
		}
	}
}

// Step is one unit of work in a Chain.
type Step func(ctx context.Context) error

// Chain runs steps one after another with a fixed delay between them.
type Chain struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// RunChain starts steps in the background. Steps after a failed or cancelled one are abandoned.
func RunChain(ctx context.Context, delay time.Duration, steps ...Step) *Chain {
	ctx, cancel := context.WithCancel(ctx)
	c := &Chain{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		defer cancel()
		c.err = runSteps(ctx, delay, steps)
	}()
	return c
}

// Stop cancels pending steps.
func (c *Chain) Stop() {
	c.cancel()
}

// Wait blocks until the chain finishes and returns the first error.
func (c *Chain) Wait() error {
	<-c.done
	return c.err
}

// Done is closed once the chain has finished.
func (c *Chain) Done() <-chan struct{} {
	return c.done
}

func runSteps(ctx context.Context, delay time.Duration, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
		if i < len(steps)-1 {
			if err := Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
