package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Reconciler polls the order API for every session holding an open
// order, so payments and cancellations made on another terminal show up
// here. Errors are logged and never reach the cashier.
type Reconciler struct {
	orders   *OrderService
	sessions *SessionStore
	Interval time.Duration
	Timeout  time.Duration
	StopChan chan struct{}
	stopOnce sync.Once
}

func NewReconciler(orders *OrderService, sessions *SessionStore, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reconciler{
		orders:   orders,
		sessions: sessions,
		Interval: interval,
		Timeout:  interval,
		StopChan: make(chan struct{}),
	}
}

func (r *Reconciler) Start() {
	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.RunOnce(context.Background())
			case <-r.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("Order reconciler started (every %s)", r.Interval)
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.StopChan) })
}

// RunOnce reconciles every session once and returns how many failed.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, s := range r.sessions.All() {
		if _, orderID := s.Generation(); orderID == 0 {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, r.Timeout)
		err := r.orders.Reconcile(cctx, s)
		cancel()
		if err != nil {
			failed++
			utils.ErrorLogger.WithFields(logrus.Fields{
				"session_id": s.ID,
				"kind":       KindOf(err),
			}).Debugf("reconcile skipped: %v", err)
		}
	}
	return failed
}
