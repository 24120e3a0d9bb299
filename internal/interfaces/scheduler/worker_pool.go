package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("finsync/scheduler")
	jobMeter           = otel.Meter("finsync/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

// ErrQueueFull is returned by Submit when the job channel has no room.
var ErrQueueFull = errors.New("job queue full")

// Stats counts finished jobs.
type Stats struct {
	Succeeded int64
	Failed    int64
}

// WorkerPool runs jobs on a fixed number of goroutines fed from a buffered channel.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobTimeout  time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once

	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a pool. jobDelay is slept by each worker between jobs to stay
// under provider rate limits; jobTimeout bounds a single Execute call.
func NewWorkerPool(workerCount int, jobDelay, jobTimeout time.Duration, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: max(workerCount, 1),
		jobDelay:    jobDelay,
		jobTimeout:  jobTimeout,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}

			wp.processJob(id, job)

			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					log.Printf("Worker %d shutting down during delay", id)
					return
				}
			}
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job Job) {
	log.Printf("Worker %d: Processing %s", workerID, job.Description())

	ctx := wp.ctx
	if wp.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wp.jobTimeout)
		defer cancel()
	}

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
			attribute.String("job.connection_id", job.ConnectionID()),
		),
	)
	defer span.End()

	start := time.Now()

	if err := job.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		jobDuration.Record(ctx, time.Since(start).Seconds())
		wp.failed.Add(1)
		log.Printf("Worker %d: Error processing %s: %v", workerID, job.Description(), err)
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	jobDuration.Record(ctx, time.Since(start).Seconds())
	wp.succeeded.Add(1)
	log.Printf("Worker %d: Completed %s in %v", workerID, job.Description(), time.Since(start).Round(time.Millisecond))
}

// Submit queues a job without blocking. A full queue drops the job with ErrQueueFull.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		log.Printf("Warning: Job queue full, dropping job for connection %s", job.ConnectionID())
		return fmt.Errorf("%w: connection %s", ErrQueueFull, job.ConnectionID())
	}
}

// SubmitWait queues a job, blocking until there is room or ctx is done.
func (wp *WorkerPool) SubmitWait(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	}
}

// SubmitBatch queues every job, waiting for room instead of dropping. It returns the
// number of jobs queued.
func (wp *WorkerPool) SubmitBatch(ctx context.Context, jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := wp.SubmitWait(ctx, job); err != nil {
			log.Printf("Failed to submit job for connection %s: %v", job.ConnectionID(), err)
			break
		}
		submitted++
	}
	log.Printf("Submitted %d/%d jobs to worker pool", submitted, len(jobs))
	return submitted
}

// Stats returns the number of jobs finished so far.
func (wp *WorkerPool) Stats() Stats {
	return Stats{Succeeded: wp.succeeded.Load(), Failed: wp.failed.Load()}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	log.Println("Worker pool: Initiating graceful shutdown")

	wp.closeOnce.Do(func() { close(wp.jobs) })
	wp.wg.Wait()
	wp.cancel()

	log.Println("Worker pool: Shutdown complete")
}

// ShutdownWithTimeout is Shutdown that cancels running jobs once timeout elapses.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	log.Printf("Worker pool: Initiating graceful shutdown with %v timeout", timeout)

	wp.closeOnce.Do(func() { close(wp.jobs) })

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool: All workers finished gracefully")
	case <-time.After(timeout):
		log.Println("Worker pool: Timeout reached, forcing shutdown")
		wp.cancel()
		<-done
	}
	wp.cancel()

	log.Println("Worker pool: Shutdown complete")
}
