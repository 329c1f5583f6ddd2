// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Errors returned by RunNow
var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobRunning = errors.New("job already running")
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus is the last known state of a registered job
type JobStatus struct {
	Name         string    `json:"name"`
	Schedule     string    `json:"schedule"`
	Runs         int       `json:"runs"`
	Failures     int       `json:"failures"`
	Running      bool      `json:"running"`
	LastRun      time.Time `json:"last_run,omitempty"`
	LastDuration float64   `json:"last_duration_seconds"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run,omitempty"`
}

type entry struct {
	job    Job
	id     cron.EntryID
	status JobStatus
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]*entry),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule. Names must be unique.
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "0 30 3 * * *"       - 03:30 daily
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}

	e := &entry{job: job, status: JobStatus{Name: job.Name(), Schedule: schedule}}
	id, err := s.cron.AddFunc(schedule, func() { _ = s.execute(e) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, job.Name(), err)
	}
	e.id = id
	s.jobs[job.Name()] = e

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a registered job immediately (outside schedule)
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	s.log.Info().Str("job", name).Msg("Running job immediately")
	return s.execute(e)
}

// Jobs returns the status of every registered job sorted by name
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, e := range s.jobs {
		st := e.status
		st.NextRun = s.cron.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) execute(e *entry) error {
	s.mu.Lock()
	if e.status.Running {
		s.mu.Unlock()
		s.log.Warn().Str("job", e.job.Name()).Msg("Job still running, skipping")
		return fmt.Errorf("%w: %s", ErrJobRunning, e.job.Name())
	}
	e.status.Running = true
	s.mu.Unlock()

	s.log.Debug().Str("job", e.job.Name()).Msg("Running job")
	started := time.Now()
	err := s.safeRun(e.job)
	elapsed := time.Since(started)

	s.mu.Lock()
	e.status.Running = false
	e.status.Runs++
	e.status.LastRun = started
	e.status.LastDuration = elapsed.Seconds()
	e.status.LastError = ""
	if err != nil {
		e.status.Failures++
		e.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", e.job.Name()).
			Dur("duration_ms", elapsed).
			Msg("Job failed")
	} else {
		s.log.Debug().Str("job", e.job.Name()).Dur("duration_ms", elapsed).Msg("Job completed")
	}
	return err
}

func (s *Scheduler) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run()
}
