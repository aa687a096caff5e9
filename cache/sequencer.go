package cache

import (
	"context"
	"sync"
)

// Sequencer runs operations on the same key one at a time in the order they
// were submitted. Operations on different keys do not wait for each other.
// The zero value is ready to use.
type Sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// enter queues behind the last operation on key and returns the channel to
// wait on (nil when the queue was empty) plus the one this operation closes.
func (s *Sequencer) enter(key string) (prev, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tails == nil {
		s.tails = make(map[string]chan struct{})
	}
	prev = s.tails[key]
	done = make(chan struct{})
	s.tails[key] = done
	return prev, done
}

func (s *Sequencer) leave(key string, done chan struct{}) {
	s.mu.Lock()
	if s.tails[key] == done {
		delete(s.tails, key)
	}
	s.mu.Unlock()
	close(done)
}

// Do runs fn on the calling goroutine once every earlier operation on key has
// finished. A ctx canceled while waiting does not skip fn; fn sees the ctx and
// fails on its own, which keeps the queue intact.
func (s *Sequencer) Do(ctx context.Context, key string, fn func(context.Context)) {
	prev, done := s.enter(key)
	defer s.leave(key, done)
	if prev != nil {
		<-prev
	}
	fn(ctx)
}

// Go queues fn like Do but returns immediately; fn runs on a new goroutine.
func (s *Sequencer) Go(ctx context.Context, key string, fn func(context.Context)) {
	prev, done := s.enter(key)
	go func() {
		defer s.leave(key, done)
		if prev != nil {
			<-prev
		}
		fn(ctx)
	}()
}

// Pending reports how many keys have queued or running operations.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tails)
}
