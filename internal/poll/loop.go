package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc performs one refresh.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loop runs a fetch on a fixed interval until stopped. Ticks fire on the
// timer regardless of in-flight fetches; only the latest result of the live
// generation is published. Failures are published too and never end the loop.
type Loop[T any] struct {
	Interval  time.Duration
	Fetch     FetchFunc[T]
	OnResult  func(T)
	OnError   func(error)
	Logger    *zap.Logger
	handle    *Handle
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	publishMu sync.Mutex
}

// Start fires an immediate fetch, then one per interval.
func (l *Loop[T]) Start(ctx context.Context) {
	if l.handle == nil {
		l.handle = NewHandle()
	}
	if l.Logger == nil {
		l.Logger = zap.NewNop()
	}
	ctx, l.cancel = context.WithCancel(ctx)
	gen := l.handle.Start()
	l.Logger.Debug("poll started", zap.String("handle", l.handle.ID()), zap.Duration("interval", l.Interval))

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.Interval)
		defer ticker.Stop()
		l.tick(ctx, gen)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !l.handle.Current(gen) {
					return
				}
				l.tick(ctx, gen)
			}
		}
	}()
}

func (l *Loop[T]) tick(ctx context.Context, gen uint64) {
	t := l.handle.Begin()
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		v, err := l.Fetch(ctx)

		l.publishMu.Lock()
		defer l.publishMu.Unlock()
		if !l.handle.Accept(t) {
			l.Logger.Debug("stale poll result dropped",
				zap.String("handle", l.handle.ID()), zap.Uint64("gen", t.Gen), zap.Uint64("seq", t.Seq))
			return
		}
		if err != nil {
			l.Logger.Warn("poll fetch failed", zap.String("handle", l.handle.ID()), zap.Error(err))
			if l.OnError != nil {
				l.OnError(err)
			}
			return
		}
		if l.OnResult != nil {
			l.OnResult(v)
		}
	}()
}

// Stop ends the loop. In-flight fetches are not aborted but their results are
// discarded. Stop waits for them to finish.
func (l *Loop[T]) Stop() {
	if l.handle == nil {
		return
	}
	l.publishMu.Lock()
	l.handle.Stop()
	l.publishMu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
	l.Logger.Debug("poll stopped", zap.String("handle", l.handle.ID()))
}

// State reports the loop's handle state.
func (l *Loop[T]) State() State {
	if l.handle == nil {
		return Idle
	}
	return l.handle.State()
}
