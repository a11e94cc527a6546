package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

// Enqueuer adds a task to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Job enqueues the task built by Task every time Schedule fires.
type Job struct {
	Name     string
	Schedule string
	Task     func() backlite.Task
}

// Scheduler enqueues maintenance tasks on cron schedules. The queue
// workers do the actual work, so a slow job never blocks the scheduler.
type Scheduler struct {
	queue Enqueuer
	jobs  []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func New(queue Enqueuer, jobs ...Job) *Scheduler {
	return &Scheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every job and starts the cron loop. It stops on its own
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
	}

	for _, job := range s.jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.run(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID
		log.Printf("Scheduler: %s scheduled '%s' (%s)", job.Name, job.Schedule, Describe(job.Schedule))
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for in-flight enqueues.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Scheduler: stopped")
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.run(job)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when the
// scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

func (s *Scheduler) run(job Job) error {
	id, err := s.queue.Enqueue(job.Task())
	if err != nil {
		log.Printf("Scheduler: failed to enqueue %s: %v", job.Name, err)
		return err
	}
	log.Printf("Scheduler: enqueued %s (task %s)", job.Name, id)
	return nil
}
