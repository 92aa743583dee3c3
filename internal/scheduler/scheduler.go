package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// ErrJobNotFound is returned when a job id is not registered.
var ErrJobNotFound = errors.New("job not found")

type JobStatus string

const (
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobInfo describes a registered job and its run history.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Status      JobStatus `json:"status"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	RunCount    int       `json:"run_count"`
	ErrorCount  int       `json:"error_count"`
	LastError   string    `json:"last_error,omitempty"`

	job gocron.Job
}

// JobFunc is the unit of work executed by the scheduler.
type JobFunc func(ctx context.Context) error

// Scheduler runs background jobs on cron schedules.
type Scheduler struct {
	gocron gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]*JobInfo

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: s,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.gocron.Start()
	log.Info("Job scheduler started")

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, info := range s.jobs {
		if next, err := info.job.NextRun(); err == nil {
			info.NextRun = next
		} else {
			log.Warn("Failed to get next run time for job", "id", id, "error", err)
		}
	}
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddCronJob registers a singleton job running on a five field cron schedule.
func (s *Scheduler) AddCronJob(id, name, description, schedule string, fn JobFunc) error {
	info := &JobInfo{
		ID:          id,
		Name:        name,
		Description: description,
		Schedule:    schedule,
		Status:      JobStatusScheduled,
	}

	job, err := s.gocron.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(s.wrap(info, fn)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	info.job = job

	s.mu.Lock()
	s.jobs[id] = info
	s.mu.Unlock()

	log.Info("Added job to scheduler", "id", id, "name", name, "schedule", schedule)
	return nil
}

// RunJobNow triggers a job immediately.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.Lock()
	info, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	log.Info("Manually triggering job", "id", id, "name", info.Name)
	if err := info.job.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a snapshot of all jobs ordered by id.
func (s *Scheduler) GetJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, info := range s.jobs {
		jobs = append(jobs, *info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

func (s *Scheduler) wrap(info *JobInfo, fn JobFunc) func() {
	return func() {
		s.mu.Lock()
		info.Status = JobStatusRunning
		info.LastRun = time.Now()
		info.RunCount++
		s.mu.Unlock()

		log.Info("Starting job", "id", info.ID, "name", info.Name)
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			log.Error("Job failed", "id", info.ID, "name", info.Name, "error", err)
			info.Status = JobStatusFailed
			info.ErrorCount++
			info.LastError = err.Error()
		} else {
			log.Info("Job completed successfully", "id", info.ID, "name", info.Name)
			info.Status = JobStatusCompleted
			info.LastError = ""
		}
		if info.job != nil {
			if next, nerr := info.job.NextRun(); nerr == nil {
				info.NextRun = next
			}
		}
	}
}
