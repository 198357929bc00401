package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs the daily digest at 21:00 UTC.
const DefaultSpec = "0 21 * * *"

// Scheduler runs the daily report job.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
}

func New(spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop. Without a report
// function it does nothing.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		log.Println("warning: scheduler: report function not set, no reports will be generated")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		log.Printf("scheduler: daily report triggered (%s)", s.spec)
		if err := s.reportFunc(s.ctx); err != nil {
			log.Printf("scheduler: daily report failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("scheduler: started, spec %q UTC", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler: stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
