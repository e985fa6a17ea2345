package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// MaxPrintAttempts bounds automatic retries of a failed job. Manual
// retries through Retry are not bounded.
const MaxPrintAttempts = 5

// PrintMetrics counts dispatch results since start.
type PrintMetrics struct {
	Printed int64 `json:"printed"`
	Failed  int64 `json:"failed"`
	Retried int64 `json:"retried"`
}

// PrintDispatcher records every print as a job, sends it to the printer
// and keeps failed jobs in a retry queue. A print failure never changes
// the order it belongs to.
type PrintDispatcher struct {
	db            *gorm.DB
	printer       Printer
	notifier      Notifier
	retryInterval time.Duration
	now           func() time.Time

	mutex      sync.Mutex
	retryQueue []string
	metrics    PrintMetrics
	stopChan   chan struct{}
	stopOnce   sync.Once
}

func NewPrintDispatcher(db *gorm.DB, printer Printer, notifier Notifier, retryInterval time.Duration) *PrintDispatcher {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if retryInterval <= 0 {
		retryInterval = time.Minute
	}
	return &PrintDispatcher{
		db:            db,
		printer:       printer,
		notifier:      notifier,
		retryInterval: retryInterval,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
}

// Dispatch stores doc as a new job and prints it doc.Footer.Copies
// times. On failure the job is queued for retry and the error is
// returned together with the job.
func (pd *PrintDispatcher) Dispatch(ctx context.Context, orderID uint, doc models.PrintableDocument) (*models.PrintJob, error) {
	if doc.Footer.Copies < 1 {
		doc.Footer.Copies = 1
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	job := &models.PrintJob{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		Kind:     doc.Kind,
		Copies:   doc.Footer.Copies,
		Status:   models.PrintJobPending,
		Document: string(payload),
	}
	if err := pd.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("store print job: %w", err)
	}

	return job, pd.attempt(ctx, job, doc)
}

// Retry prints the copies a stored job still owes. A job that already
// printed is returned unchanged.
func (pd *PrintDispatcher) Retry(ctx context.Context, jobID string) (*models.PrintJob, error) {
	job, err := pd.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.PrintJobPrinted {
		return job, nil
	}

	var doc models.PrintableDocument
	if err := json.Unmarshal([]byte(job.Document), &doc); err != nil {
		return job, fmt.Errorf("decode print job %s: %w", job.ID, err)
	}

	pd.mutex.Lock()
	pd.metrics.Retried++
	pd.mutex.Unlock()

	return job, pd.attempt(ctx, job, doc)
}

func (pd *PrintDispatcher) GetJob(ctx context.Context, jobID string) (*models.PrintJob, error) {
	var job models.PrintJob
	if err := pd.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, mapDBError("get_print_job", err, "print job %s not found", jobID)
	}
	return &job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (pd *PrintDispatcher) ListJobs(ctx context.Context, status string) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	q := pd.db.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, mapDBError("list_print_jobs", err, "print jobs not found")
	}
	return jobs, nil
}

func (pd *PrintDispatcher) attempt(ctx context.Context, job *models.PrintJob, doc models.PrintableDocument) error {
	var printErr error
	for job.CopiesPrinted < job.Copies {
		if printErr = pd.printer.Print(ctx, doc); printErr != nil {
			break
		}
		job.CopiesPrinted++
	}

	// hasil cetak tetap dicatat walau request sudah dibatalkan
	store := pd.db.WithContext(context.WithoutCancel(ctx))
	job.Attempts++
	fields := logrus.Fields{"job_id": job.ID, "order_id": job.OrderID, "kind": job.Kind, "attempt": job.Attempts}

	if printErr != nil {
		job.Status = models.PrintJobFailed
		job.LastError = printErr.Error()
		if err := store.Save(job).Error; err != nil {
			utils.ErrorLogger.WithFields(fields).Errorf("save failed print job: %v", err)
		}
		pd.addToRetryQueue(job.ID)

		pd.mutex.Lock()
		pd.metrics.Failed++
		pd.mutex.Unlock()

		utils.ErrorLogger.WithFields(fields).Warnf("print failed: %v", printErr)
		pd.notifier.Notify(models.Notification{
			Event:     models.NotificationPrintFailed,
			OrderID:   job.OrderID,
			Message:   fmt.Sprintf("In thất bại cho đơn #%d, sẽ thử lại", job.OrderID),
			Data:      job,
			CreatedAt: pd.now(),
		})
		return fmt.Errorf("print job %s: %w", job.ID, printErr)
	}

	printedAt := pd.now()
	job.Status = models.PrintJobPrinted
	job.LastError = ""
	job.PrintedAt = &printedAt
	if err := store.Save(job).Error; err != nil {
		utils.ErrorLogger.WithFields(fields).Errorf("save printed job: %v", err)
	}

	pd.mutex.Lock()
	pd.metrics.Printed++
	pd.mutex.Unlock()

	utils.InfoLogger.WithFields(fields).Info("document printed")
	return nil
}

func (pd *PrintDispatcher) addToRetryQueue(jobID string) {
	pd.mutex.Lock()
	defer pd.mutex.Unlock()

	for _, id := range pd.retryQueue {
		if id == jobID {
			return
		}
	}
	pd.retryQueue = append(pd.retryQueue, jobID)
}

// Start requeues failed jobs left from a previous run and begins the
// retry loop.
func (pd *PrintDispatcher) Start() {
	var failed []models.PrintJob
	if err := pd.db.Where("status = ? AND attempts < ?", models.PrintJobFailed, MaxPrintAttempts).Find(&failed).Error; err != nil {
		utils.ErrorLogger.Errorf("load failed print jobs: %v", err)
	}
	for _, job := range failed {
		pd.addToRetryQueue(job.ID)
	}

	go func() {
		ticker := time.NewTicker(pd.retryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pd.processRetryQueue(context.Background())
			case <-pd.stopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("Print dispatcher started, %d job(s) waiting for retry", len(failed))
}

func (pd *PrintDispatcher) Stop() {
	pd.stopOnce.Do(func() { close(pd.stopChan) })
}

func (pd *PrintDispatcher) processRetryQueue(ctx context.Context) {
	pd.mutex.Lock()
	if len(pd.retryQueue) == 0 {
		pd.mutex.Unlock()
		return
	}
	queue := make([]string, len(pd.retryQueue))
	copy(queue, pd.retryQueue)
	pd.retryQueue = pd.retryQueue[:0]
	pd.mutex.Unlock()

	for _, id := range queue {
		job, err := pd.GetJob(ctx, id)
		if err != nil {
			utils.ErrorLogger.Errorf("retry print job %s: %v", id, err)
			continue
		}
		if job.Status == models.PrintJobPrinted {
			continue
		}
		if job.Attempts >= MaxPrintAttempts {
			utils.ErrorLogger.WithField("job_id", id).Warn("print job gave up after max attempts")
			continue
		}
		// error sudah dicatat di attempt
		_, _ = pd.Retry(ctx, id)
	}
}

func (pd *PrintDispatcher) GetMetrics() PrintMetrics {
	pd.mutex.Lock()
	defer pd.mutex.Unlock()
	return pd.metrics
}

// QueuedJobs returns the ids waiting for the next retry round.
func (pd *PrintDispatcher) QueuedJobs() []string {
	pd.mutex.Lock()
	defer pd.mutex.Unlock()
	return append([]string(nil), pd.retryQueue...)
}
