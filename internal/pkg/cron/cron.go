// Package cron runs named maintenance jobs on fixed intervals.
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Job is a named task run every Interval.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

type entry struct {
	Job

	mu      sync.Mutex
	status  Status
	message string
	lastRun *time.Time
	nextRun time.Time
}

// Info is the reportable state of a job.
type Info struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Message     string     `json:"message,omitempty"`
	NextRunAt   time.Time  `json:"nextRunAt"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*entry
	log  *zap.Logger
	wg   sync.WaitGroup
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{jobs: make(map[string]*entry), log: log}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = &entry{Job: job, status: StatusIdle, nextRun: time.Now().Add(job.Interval)}
}

// Start schedules every registered job until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

// Wait blocks until every job loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	timer := time.NewTimer(e.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.execute(ctx, e)
			e.mu.Lock()
			e.nextRun = time.Now().Add(e.Interval)
			e.mu.Unlock()
			timer.Reset(e.Interval)
		}
	}
}

// execute runs e unless a run is already in flight.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	e.mu.Lock()
	if e.status == StatusRunning {
		e.mu.Unlock()
		return
	}
	e.status = StatusRunning
	e.mu.Unlock()

	started := time.Now()
	err := e.Fn(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastRun = &started
	if err != nil {
		e.status, e.message = StatusFailed, err.Error()
		s.log.Warn("cron job failed", zap.String("job", e.Name), zap.Error(err))
		return
	}
	e.status, e.message = StatusOK, ""
	s.log.Debug("cron job done", zap.String("job", e.Name), zap.Duration("took", time.Since(started)))
}

// Run triggers a job now without waiting for it.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	go s.execute(context.WithoutCancel(ctx), e)
	return nil
}

func (s *Scheduler) Get(name string) (Info, error) {
	e, err := s.lookup(name)
	if err != nil {
		return Info{}, err
	}
	return e.info(), nil
}

// List reports every job sorted by name.
func (s *Scheduler) List() []Info {
	s.mu.RLock()
	items := make([]Info, 0, len(s.jobs))
	for _, e := range s.jobs {
		items = append(items, e.info())
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (s *Scheduler) lookup(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("job %q not found", name)
	}
	return e, nil
}

func (e *entry) info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Info{
		Name:        e.Name,
		Description: e.Description,
		Status:      e.status,
		Message:     e.message,
		NextRunAt:   e.nextRun,
		LastRunAt:   e.lastRun,
	}
}
