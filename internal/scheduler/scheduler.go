// Package scheduler runs the notifier job on a cron spec without ever
// overlapping two runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/listing-notifier/internal/types"
)

// Job is one notifier run.
type Job interface {
	Run(ctx context.Context) (*types.RunReport, error)
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a cron spec, e.g. "@every 15m" or "*/10 * * * *".
	Spec string
	// RunOnStart triggers one run as soon as Start is called.
	RunOnStart bool
	// OnReport receives the report of every run, failed or not.
	OnReport func(*types.RunReport, error)
	Logger   *log.Logger
}

// Scheduler wraps robfig/cron and manages the run loop.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	opts    Options
	logger  *log.Logger
	wrapped cron.Job

	runs    atomic.Int64
	startup sync.WaitGroup
}

// New builds a Scheduler after parsing opts.Spec.
func New(job Job, opts Options) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if _, err := cron.ParseStandard(opts.Spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", opts.Spec, err)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.PrintfLogger(opts.Logger))),
		job:    job,
		opts:   opts,
		logger: opts.Logger,
	}
	return s, nil
}

// Start registers the job and starts the scheduler. Runs use ctx; cancel it
// and call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	skip := cron.SkipIfStillRunning(cron.VerbosePrintfLogger(s.logger))
	s.wrapped = cron.NewChain(skip).Then(cron.FuncJob(func() {
		s.runOnce(ctx)
	}))

	if _, err := s.cron.AddJob(s.opts.Spec, s.wrapped); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}

	s.cron.Start()
	s.logger.Printf("[schedule] Cron started, spec: %s", s.opts.Spec)

	if s.opts.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.wrapped.Run()
		}()
	}
	return nil
}

// Stop stops scheduling and waits for a run in progress to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.logger.Printf("[schedule] Cron stopped after %d run(s)", s.runs.Load())
}

// Runs returns how many runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.job.Run(ctx)
	s.runs.Add(1)
	if err != nil {
		s.logger.Printf("[schedule] Run failed: %v", err)
	}
	if s.opts.OnReport != nil {
		s.opts.OnReport(report, err)
	}
}
