package services

import (
	"context"
	"sync"
)

type sequencedJob struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

type orderQueue struct {
	jobs    chan sequencedJob
	pending int
}

// OrderSequencer runs jobs for the same order one at a time, in the order
// they were submitted. Jobs for different orders run independently. A
// worker goroutine exists only while its order has pending jobs.
type OrderSequencer struct {
	mu     sync.Mutex
	queues map[uint]*orderQueue
	wg     sync.WaitGroup
}

func NewOrderSequencer() *OrderSequencer {
	return &OrderSequencer{queues: make(map[uint]*orderQueue)}
}

// Submit queues fn behind earlier jobs for orderID and waits for its
// result. A job whose context is already done when its turn comes is
// skipped.
func (s *OrderSequencer) Submit(ctx context.Context, orderID uint, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	q, ok := s.queues[orderID]
	if !ok {
		q = &orderQueue{jobs: make(chan sequencedJob, 16)}
		s.queues[orderID] = q
		s.wg.Add(1)
		go s.worker(orderID, q)
	}
	q.pending++
	s.mu.Unlock()

	job := sequencedJob{ctx: ctx, fn: fn, done: make(chan error, 1)}
	q.jobs <- job

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrderSequencer) worker(orderID uint, q *orderQueue) {
	defer s.wg.Done()
	for job := range q.jobs {
		if err := job.ctx.Err(); err != nil {
			job.done <- err
		} else {
			job.done <- job.fn(job.ctx)
		}

		s.mu.Lock()
		q.pending--
		if q.pending == 0 {
			delete(s.queues, orderID)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

func (s *OrderSequencer) pendingFor(orderID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[orderID]; ok {
		return q.pending
	}
	return 0
}

// Wait blocks until every queued job has finished.
func (s *OrderSequencer) Wait() {
	s.wg.Wait()
}
