package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/krono/backend/domain"
	exportUC "github.com/krono/backend/usecase/export"
)

type fakeExportRepo struct {
	exports map[string]*domain.ScheduledExport
}

func newFakeExportRepo() *fakeExportRepo {
	return &fakeExportRepo{exports: make(map[string]*domain.ScheduledExport)}
}

func (r *fakeExportRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledExport, error) {
	if e, ok := r.exports[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, domain.ErrExportNotFound
}

func (r *fakeExportRepo) ListByUser(ctx context.Context, userID string) ([]domain.ScheduledExport, error) {
	var out []domain.ScheduledExport
	for _, e := range r.exports {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExportRepo) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledExport, error) {
	var out []domain.ScheduledExport
	for _, e := range r.exports {
		if e.IsActive && !e.NextScheduled.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExportRepo) Create(ctx context.Context, export *domain.ScheduledExport) (*domain.ScheduledExport, error) {
	copied := *export
	r.exports[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (r *fakeExportRepo) Update(ctx context.Context, export *domain.ScheduledExport) error {
	if _, ok := r.exports[export.ID]; !ok {
		return domain.ErrExportNotFound
	}
	copied := *export
	r.exports[export.ID] = &copied
	return nil
}

func (r *fakeExportRepo) Delete(ctx context.Context, id string) error {
	delete(r.exports, id)
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) Send(ctx context.Context, to, subject, body string, attachment []byte, filename string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func TestExportScheduler_Schedule(t *testing.T) {
	t.Run("Given sub-minute intervals When rendered Then resolution is preserved and spec parses", func(t *testing.T) {
		cases := []struct {
			interval time.Duration
			want     string
		}{
			{45 * time.Second, "@every 45s"},
			{90 * time.Second, "@every 1m30s"},
			{5 * time.Minute, "@every 5m0s"},
		}
		for _, tc := range cases {
			got := every(tc.interval)
			if got != tc.want {
				t.Errorf("interval %v: expected %q, got %q", tc.interval, tc.want, got)
			}
			if _, err := cron.ParseStandard(got); err != nil {
				t.Errorf("interval %v: spec %q does not parse: %v", tc.interval, got, err)
			}
		}
	})
}

func TestExportScheduler_RunDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	newExporter := func(exports *fakeExportRepo, sender *fakeSender) *exportUC.UseCase {
		store := newFakeTrackerStore()
		return exportUC.New(&fakeTaskRepo{store: store}, fakeTypeRepo{}, newFakeProfileRepo(), exports, sender, nil, nil)
	}

	t.Run("Given due export When RunDue Then delivered and rescheduled", func(t *testing.T) {
		exports := newFakeExportRepo()
		exports.exports["exp-1"] = &domain.ScheduledExport{
			ID:            "exp-1",
			UserID:        "user-1",
			Frequency:     domain.ExportDaily,
			EmailTo:       "me@example.com",
			IsActive:      true,
			NextScheduled: now.Add(-time.Hour),
		}
		sender := &fakeSender{}
		s := NewExportScheduler(exports, newExporter(exports, sender), nil, SchedulerConfig{})

		if delivered := s.RunDue(ctx, now); delivered != 1 {
			t.Fatalf("expected 1 delivery, got %d", delivered)
		}
		if len(sender.sent) != 1 || sender.sent[0] != "me@example.com" {
			t.Errorf("unexpected deliveries: %v", sender.sent)
		}

		updated := exports.exports["exp-1"]
		if updated.LastSent == nil || !updated.LastSent.Equal(now) {
			t.Error("expected last_sent stamped")
		}
		if !updated.NextScheduled.After(now) {
			t.Errorf("expected schedule advanced past %v, got %v", now, updated.NextScheduled)
		}
	})

	t.Run("Given inactive export When RunDue Then skipped", func(t *testing.T) {
		exports := newFakeExportRepo()
		exports.exports["exp-1"] = &domain.ScheduledExport{
			ID:            "exp-1",
			UserID:        "user-1",
			Frequency:     domain.ExportDaily,
			EmailTo:       "me@example.com",
			IsActive:      false,
			NextScheduled: now.Add(-time.Hour),
		}
		sender := &fakeSender{}
		s := NewExportScheduler(exports, newExporter(exports, sender), nil, SchedulerConfig{})

		if delivered := s.RunDue(ctx, now); delivered != 0 {
			t.Fatalf("expected no deliveries, got %d", delivered)
		}
	})

	t.Run("Given delivery failure When RunDue Then schedule not advanced", func(t *testing.T) {
		exports := newFakeExportRepo()
		due := now.Add(-time.Hour)
		exports.exports["exp-1"] = &domain.ScheduledExport{
			ID:            "exp-1",
			UserID:        "user-1",
			Frequency:     domain.ExportDaily,
			EmailTo:       "me@example.com",
			IsActive:      true,
			NextScheduled: due,
		}
		sender := &fakeSender{err: errors.New("smtp down")}
		s := NewExportScheduler(exports, newExporter(exports, sender), nil, SchedulerConfig{})

		if delivered := s.RunDue(ctx, now); delivered != 0 {
			t.Fatalf("expected no deliveries, got %d", delivered)
		}
		if !exports.exports["exp-1"].NextScheduled.Equal(due) {
			t.Error("expected failed delivery to stay due for retry")
		}
	})

	t.Run("Given future export When RunDue Then untouched", func(t *testing.T) {
		exports := newFakeExportRepo()
		exports.exports["exp-1"] = &domain.ScheduledExport{
			ID:            "exp-1",
			UserID:        "user-1",
			Frequency:     domain.ExportWeekly,
			EmailTo:       "me@example.com",
			IsActive:      true,
			NextScheduled: now.Add(24 * time.Hour),
		}
		sender := &fakeSender{}
		s := NewExportScheduler(exports, newExporter(exports, sender), nil, SchedulerConfig{})

		if delivered := s.RunDue(ctx, now); delivered != 0 {
			t.Fatalf("expected no deliveries, got %d", delivered)
		}
		if len(sender.sent) != 0 {
			t.Error("expected no email sent")
		}
	})
}
