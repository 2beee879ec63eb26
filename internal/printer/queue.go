package printer

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// Job states
const (
	JobQueued    = "queued"
	JobPrinting  = "printing"
	JobFailed    = "failed"
	JobCompleted = "completed"
)

// PrintJob is one label job for one printer
type PrintJob struct {
	ID        string        `json:"id"`
	PrinterID string        `json:"printer_id"`
	Target    string        `json:"target"`
	Config    Config        `json:"config"`
	Images    []image.Image `json:"-"`
	Retries   int           `json:"retries"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`

	notBefore time.Time
}

// PrintFunc encodes and transmits a job's images
type PrintFunc func(target string, cfg Config, imgs ...image.Image) error

// PrintQueue runs print jobs on a single worker with retry
type PrintQueue struct {
	jobs       []*PrintJob
	mu         sync.Mutex
	print      PrintFunc
	maxRetries int
	retryDelay time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	onJobDone func(*PrintJob)
}

// NewPrintQueue creates a queue that prints with fn (PrintImages when nil)
// and starts its worker
func NewPrintQueue(fn PrintFunc, maxRetries int) *PrintQueue {
	if fn == nil {
		fn = PrintImages
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &PrintQueue{
		print:      fn,
		maxRetries: maxRetries,
		retryDelay: time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// OnJobDone sets a callback for jobs reaching completed or failed. It runs
// on the worker goroutine with a copy of the job.
func (q *PrintQueue) OnJobDone(callback func(*PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onJobDone = callback
}

// Enqueue adds a print job and returns its ID
func (q *PrintQueue) Enqueue(printerID, target string, cfg Config, imgs ...image.Image) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if len(imgs) == 0 {
		return "", ErrNoPage
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	job := &PrintJob{
		ID:        uuid.New().String(),
		PrinterID: printerID,
		Target:    target,
		Config:    cfg,
		Images:    imgs,
		Status:    JobQueued,
		CreatedAt: time.Now(),
	}
	q.jobs = append(q.jobs, job)

	logger.Debug("print job queued",
		zap.String("job", job.ID),
		zap.String("printer", printerID),
		zap.Int("pages", len(imgs)))

	return job.ID, nil
}

func (q *PrintQueue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *PrintQueue) processNextJob() {
	q.mu.Lock()

	now := time.Now()
	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == JobQueued && !now.Before(j.notBefore) {
			job = j
			job.Status = JobPrinting
			break
		}
	}
	q.mu.Unlock()

	if job == nil {
		return
	}

	err := q.print(job.Target, job.Config, job.Images...)

	q.mu.Lock()
	log := logger.With(zap.String("job", job.ID), zap.String("target", job.Target))
	done := true
	if err != nil {
		job.Retries++
		job.Error = err.Error()

		switch {
		case errors.Is(err, ErrDeviceNotFound):
			job.Status = JobFailed
			log.Error("print job failed, device not found", zap.Error(err))
		case job.Retries >= q.maxRetries:
			job.Status = JobFailed
			log.Error("print job failed", zap.Int("retries", job.Retries), zap.Error(err))
		default:
			job.Status = JobQueued
			job.notBefore = time.Now().Add(q.retryDelay)
			done = false
			log.Warn("print job failed, retrying",
				zap.Int("attempt", job.Retries),
				zap.Int("max", q.maxRetries),
				zap.Error(err))
		}
	} else {
		job.Status = JobCompleted
		job.Error = ""
		log.Info("print job completed")
	}

	callback := q.onJobDone
	jobCopy := *job
	q.mu.Unlock()

	if done && callback != nil {
		callback(&jobCopy)
	}
}

// GetJob returns a copy of a job by ID
func (q *PrintQueue) GetJob(jobID string) *PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			jobCopy := *job
			return &jobCopy
		}
	}

	return nil
}

// GetAllJobs returns copies of all jobs in submission order
func (q *PrintQueue) GetAllJobs() []*PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobCopy := *job
		jobs[i] = &jobCopy
	}

	return jobs
}

// ClearCompleted removes completed jobs from the queue
func (q *PrintQueue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*PrintJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status != JobCompleted {
			filtered = append(filtered, job)
		}
	}

	q.jobs = filtered
}

// Stop stops the print queue worker
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}
