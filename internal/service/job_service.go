package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"vetchat/internal/entities"
	"vetchat/internal/repository"
	"vetchat/pkg/logging"
)

const cacheSweepSchedule = "@every 1m"

// JobService runs the periodic maintenance jobs.
type JobService struct {
	cron     *cron.Cron
	cache    ResponseCache
	store    repository.AppointmentStore
	notifier *NotificationService
	clock    Clock
	loc      *time.Location
	logger   *logging.Logger
}

func NewJobService(cache ResponseCache, store repository.AppointmentStore, notifier *NotificationService, clock Clock, loc *time.Location, logger *logging.Logger) *JobService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobService{
		cron:     cron.New(cron.WithLocation(loc)),
		cache:    cache,
		store:    store,
		notifier: notifier,
		clock:    clock,
		loc:      loc,
		logger:   logger,
	}
}

// Start registers the jobs and starts the scheduler. An empty digest
// schedule disables the daily digest.
func (s *JobService) Start(digestSchedule string) error {
	if _, err := s.cron.AddFunc(cacheSweepSchedule, func() {
		if n := s.SweepCache(context.Background()); n > 0 {
			s.logger.Debug("cron: cache entries evicted", "evicted", n)
		}
	}); err != nil {
		return fmt.Errorf("scheduling cache sweep: %w", err)
	}

	if digestSchedule != "" {
		if _, err := s.cron.AddFunc(digestSchedule, func() {
			if err := s.SendDailyDigest(context.Background()); err != nil {
				s.logger.Error("cron: daily digest failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("scheduling daily digest %q: %w", digestSchedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron jobs started", "digest_schedule", digestSchedule)
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (s *JobService) Stop() context.Context {
	return s.cron.Stop()
}

func (s *JobService) SweepCache(ctx context.Context) int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Sweep(ctx)
}

// SendDailyDigest sends the admin the list of tomorrow's live appointments.
func (s *JobService) SendDailyDigest(ctx context.Context) error {
	tomorrow := startOfDay(s.clock().In(s.loc)).AddDate(0, 0, 1)
	apts, err := s.store.ListByDate(ctx, tomorrow.Format(entities.DateLayout))
	if err != nil {
		return fmt.Errorf("listing appointments for digest: %w", err)
	}

	subject := fmt.Sprintf("Appointments for %s", tomorrow.Format("Monday, 2006-01-02"))
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n\n", subject)
	if len(apts) == 0 {
		b.WriteString("No appointments booked.")
	}
	for _, a := range apts {
		fmt.Fprintf(&b, "• %s %s (%s) - %s [%s] #%d\n", a.Time, a.PetName, a.OwnerName, a.Service, a.Status, a.ID)
	}

	d := s.notifier.Broadcast(ctx, subject, strings.TrimRight(b.String(), "\n"))
	if !d.OK() {
		return fmt.Errorf("digest not delivered on any channel (failed: %s)", strings.Join(d.Failed, ", "))
	}
	s.logger.Info("cron: daily digest sent", "appointments", len(apts), "channels", d.Delivered)
	return nil
}
