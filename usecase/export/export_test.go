package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type stubTaskRepo struct {
	tasks []domain.Task
}

func (r *stubTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *stubTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return r.tasks, nil
}

func (r *stubTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return task, nil
}

func (r *stubTaskRepo) Update(ctx context.Context, task *domain.Task) error { return nil }
func (r *stubTaskRepo) Delete(ctx context.Context, id string) error         { return nil }

func (r *stubTaskRepo) FindOpen(ctx context.Context, userID string) (*domain.Task, error) {
	return nil, nil
}

type stubTypeRepo struct {
	types []domain.TaskType
}

func (r *stubTypeRepo) GetByID(ctx context.Context, id string) (*domain.TaskType, error) {
	return nil, domain.ErrTaskTypeNotFound
}

func (r *stubTypeRepo) List(ctx context.Context, filter repository.TaskTypeFilter) ([]domain.TaskType, error) {
	return r.types, nil
}

func (r *stubTypeRepo) Create(ctx context.Context, taskType *domain.TaskType) (*domain.TaskType, error) {
	return taskType, nil
}

func (r *stubTypeRepo) Update(ctx context.Context, taskType *domain.TaskType) error { return nil }

func (r *stubTypeRepo) SetArchived(ctx context.Context, id string, archived bool) (*domain.TaskType, error) {
	return nil, domain.ErrTaskTypeNotFound
}

func (r *stubTypeRepo) SetSortOrder(ctx context.Context, id string, sortOrder int) error { return nil }

func (r *stubTypeRepo) IsValid(ctx context.Context, userID, typeID string) (bool, error) {
	return true, nil
}

type stubProfileRepo struct {
	profile *domain.Profile
}

func (r *stubProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	if r.profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return r.profile, nil
}

func (r *stubProfileRepo) Upsert(ctx context.Context, profile *domain.Profile) error { return nil }

func (r *stubProfileRepo) Touch(ctx context.Context, userID string, heartbeat time.Time) error {
	return nil
}

func (r *stubProfileRepo) ListStale(ctx context.Context, olderThan time.Time) ([]string, error) {
	return nil, nil
}

type stubSender struct {
	sent     int
	to       string
	subject  string
	filename string
	data     []byte
	err      error
}

func (s *stubSender) Send(ctx context.Context, to, subject, body string, attachment []byte, filename string) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	s.to = to
	s.subject = subject
	s.filename = filename
	s.data = attachment
	return nil
}

func closed(typeID string, start time.Time, dur time.Duration, interrupted bool, notes string) domain.Task {
	end := start.Add(dur)
	return domain.Task{
		ID:          typeID + start.Format("150405"),
		UserID:      "user-1",
		TaskTypeID:  typeID,
		StartTime:   start,
		EndTime:     &end,
		Interrupted: interrupted,
		Notes:       notes,
	}
}

func TestExport_RenderCSV(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	t.Run("Given closed tasks When RenderCSV Then rows oldest first with resolved type names", func(t *testing.T) {
		// repo returns newest first, like the real one
		tasks := &stubTaskRepo{tasks: []domain.Task{
			closed("type-email", start.AddDate(0, 0, 1).Add(10*time.Hour), 30*time.Minute, true, "inbox zero"),
			closed("type-work", start.Add(9*time.Hour), 2*time.Hour, false, ""),
		}}
		types := &stubTypeRepo{types: []domain.TaskType{
			{ID: "type-work", Name: "Deep Work"},
			{ID: "type-email", Name: "Email"},
		}}
		uc := New(tasks, types, &stubProfileRepo{}, nil, nil, nil, nil)

		data, filename, err := uc.RenderCSV(ctx, "user-1", start, end)
		if err != nil {
			t.Fatalf("RenderCSV failed: %v", err)
		}
		if filename != "krono_export_2025-06-02_2025-06-08.csv" {
			t.Errorf("unexpected filename %s", filename)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d records", len(records))
		}
		if records[0][0] != "Date" || records[0][4] != "Duration (HH:MM:SS)" {
			t.Errorf("unexpected header: %v", records[0])
		}

		first := records[1]
		if first[1] != "Deep Work" {
			t.Errorf("expected oldest task first, got type %q", first[1])
		}
		if first[4] != "02:00:00" {
			t.Errorf("expected duration 02:00:00, got %s", first[4])
		}
		if first[5] != "No" {
			t.Errorf("expected Interrupted=No, got %s", first[5])
		}

		second := records[2]
		if second[1] != "Email" || second[5] != "Yes" || second[6] != "inbox zero" {
			t.Errorf("unexpected second row: %v", second)
		}
	})

	t.Run("Given profile timezone When RenderCSV Then timestamps are local", func(t *testing.T) {
		tasks := &stubTaskRepo{tasks: []domain.Task{
			closed("type-work", start.Add(9*time.Hour), time.Hour, false, ""),
		}}
		types := &stubTypeRepo{types: []domain.TaskType{{ID: "type-work", Name: "Deep Work"}}}
		profiles := &stubProfileRepo{profile: &domain.Profile{UserID: "user-1", Timezone: "Europe/Berlin"}}
		uc := New(tasks, types, profiles, nil, nil, nil, nil)

		data, _, err := uc.RenderCSV(ctx, "user-1", start, end)
		if err != nil {
			t.Fatalf("RenderCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		// 09:00 UTC is 11:00 in Berlin during DST
		if got := records[1][2]; got != "2025-06-02 11:00:00" {
			t.Errorf("expected local start time 2025-06-02 11:00:00, got %s", got)
		}
	})

	t.Run("Given end before start When RenderCSV Then invalid", func(t *testing.T) {
		uc := New(&stubTaskRepo{}, &stubTypeRepo{}, &stubProfileRepo{}, nil, nil, nil, nil)

		_, _, err := uc.RenderCSV(ctx, "user-1", end, start)
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("expected INVALID, got %v", err)
		}
	})
}

func TestExport_EmailCSV(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	t.Run("Given sender When EmailCSV Then attachment delivered", func(t *testing.T) {
		tasks := &stubTaskRepo{tasks: []domain.Task{
			closed("type-work", start.Add(9*time.Hour), time.Hour, false, ""),
		}}
		types := &stubTypeRepo{types: []domain.TaskType{{ID: "type-work", Name: "Deep Work"}}}
		sender := &stubSender{}
		uc := New(tasks, types, &stubProfileRepo{}, nil, sender, nil, nil)

		if err := uc.EmailCSV(ctx, "user-1", "me@example.com", start, end); err != nil {
			t.Fatalf("EmailCSV failed: %v", err)
		}
		if sender.sent != 1 {
			t.Fatalf("expected 1 send, got %d", sender.sent)
		}
		if sender.to != "me@example.com" {
			t.Errorf("unexpected recipient %s", sender.to)
		}
		if sender.filename != "krono_export_2025-06-02_2025-06-08.csv" {
			t.Errorf("unexpected filename %s", sender.filename)
		}
		if len(sender.data) == 0 {
			t.Error("expected attachment data")
		}
	})

	t.Run("Given no recipient When EmailCSV Then invalid", func(t *testing.T) {
		uc := New(&stubTaskRepo{}, &stubTypeRepo{}, &stubProfileRepo{}, nil, &stubSender{}, nil, nil)

		err := uc.EmailCSV(ctx, "user-1", "", start, end)
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("expected INVALID, got %v", err)
		}
	})

	t.Run("Given sender failure When EmailCSV Then unavailable", func(t *testing.T) {
		sender := &stubSender{err: context.DeadlineExceeded}
		uc := New(&stubTaskRepo{}, &stubTypeRepo{}, &stubProfileRepo{}, nil, sender, nil, nil)

		err := uc.EmailCSV(ctx, "user-1", "me@example.com", start, end)
		if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
			t.Fatalf("expected UNAVAILABLE, got %v", err)
		}
	})
}
