package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Loop is one refresh cycle: fetch, then apply the result or report the failure.
// Every tick takes a sequence number; a result is applied only while its
// number is still the latest issued, so a slow response never overwrites a
// newer one.
type Loop[T any] struct {
	name  string
	fetch func(ctx context.Context) (T, error)
	apply func(T)
	fail  func(error)
	log   *logrus.Entry

	issued atomic.Uint64
	mu     sync.Mutex
}

// NewLoop builds a loop. fail may be nil.
func NewLoop[T any](name string, fetch func(context.Context) (T, error), apply func(T), fail func(error), log *logrus.Entry) *Loop[T] {
	return &Loop[T]{
		name:  name,
		fetch: fetch,
		apply: apply,
		fail:  fail,
		log:   log.WithField("loop", name),
	}
}

// Name returns the loop's name.
func (l *Loop[T]) Name() string {
	return l.name
}

// Tick runs one fetch-and-apply cycle and reports whether its result was
// applied. Errors and panics end the tick only; they never propagate.
func (l *Loop[T]) Tick(ctx context.Context) (applied bool) {
	seq := l.issued.Add(1)
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("seq", seq).Errorf("panic in tick: %v\n%s", r, debug.Stack())
			applied = false
		}
	}()

	result, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if latest := l.issued.Load(); seq != latest {
		l.log.WithFields(logrus.Fields{"seq": seq, "latest": latest}).Debug("discarding stale response")
		return false
	}
	if err != nil {
		l.log.WithField("seq", seq).WithError(err).Warn("tick failed")
		if l.fail != nil {
			l.fail(err)
		}
		return false
	}
	l.apply(result)
	l.log.WithField("seq", seq).Debug("tick applied")
	return true
}

// String implements fmt.Stringer for log output.
func (l *Loop[T]) String() string {
	return fmt.Sprintf("%s(seq=%d)", l.name, l.issued.Load())
}
