// Package export renders closed task history as CSV, for direct download or
// email delivery.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase"
)

// EmailSender delivers a rendered export. Implemented by the SMTP client in
// internal/infrastructure/mail.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string, attachment []byte, filename string) error
}

var csvHeader = []string{
	"Date",
	"Task Type",
	"Start Time",
	"End Time",
	"Duration (HH:MM:SS)",
	"Interrupted",
	"Notes",
	"Edited",
}

type UseCase struct {
	tasks    repository.TaskRepository
	types    repository.TaskTypeRepository
	profiles repository.ProfileRepository
	exports  repository.ScheduledExportRepository
	sender   EmailSender
	clock    usecase.Clock
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	types repository.TaskTypeRepository,
	profiles repository.ProfileRepository,
	exports repository.ScheduledExportRepository,
	sender EmailSender,
	clock usecase.Clock,
	logger *zap.Logger,
) *UseCase {
	if clock == nil {
		clock = usecase.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		types:    types,
		profiles: profiles,
		exports:  exports,
		sender:   sender,
		clock:    clock,
		logger:   logger,
	}
}

// RenderCSV builds the export for the inclusive date range and returns the
// file contents and suggested filename. Timestamps are rendered in the user's
// profile timezone.
func (uc *UseCase) RenderCSV(ctx context.Context, userID string, start, end time.Time) ([]byte, string, error) {
	if end.Before(start) {
		return nil, "", domain.NewError(domain.ErrCodeInvalid, "end date before start date")
	}

	loc := uc.userLocation(ctx, userID)

	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{
		UserID:     userID,
		From:       start,
		Until:      end.AddDate(0, 0, 1),
		ClosedOnly: true,
	})
	if err != nil {
		return nil, "", err
	}

	typeNames, err := uc.typeNames(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}

	// oldest first for readable exports
	for i := len(tasks) - 1; i >= 0; i-- {
		task := tasks[i]
		startLocal := task.StartTime.In(loc)

		endStr := ""
		if task.EndTime != nil {
			endStr = task.EndTime.In(loc).Format("2006-01-02 15:04:05")
		}

		if err := writer.Write([]string{
			startLocal.Format("2006-01-02"),
			typeNames[task.TaskTypeID],
			startLocal.Format("2006-01-02 15:04:05"),
			endStr,
			formatHMS(task.Duration(time.Time{})),
			yesNo(task.Interrupted),
			task.Notes,
			yesNo(task.EditedByUser),
		}); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("krono_export_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// EmailCSV renders the range and sends it to the given address.
func (uc *UseCase) EmailCSV(ctx context.Context, userID, emailTo string, start, end time.Time) error {
	if emailTo == "" {
		return domain.NewError(domain.ErrCodeInvalid, "email_to is required")
	}
	if uc.sender == nil {
		return domain.NewError(domain.ErrCodeUnavailable, "email delivery is not configured")
	}

	data, filename, err := uc.RenderCSV(ctx, userID, start, end)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your time tracking export %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	body := "Attached is your requested time tracking export."

	if err := uc.sender.Send(ctx, emailTo, subject, body, data, filename); err != nil {
		uc.logger.Error("export email delivery failed", zap.String("user_id", userID), zap.Error(err))
		return domain.WrapError(domain.ErrCodeUnavailable, "export email delivery failed", err)
	}

	uc.logger.Info("export emailed", zap.String("user_id", userID), zap.String("to", emailTo))
	return nil
}

func (uc *UseCase) userLocation(ctx context.Context, userID string) *time.Location {
	if uc.profiles == nil {
		return time.UTC
	}
	profile, err := uc.profiles.GetByUserID(ctx, userID)
	if err != nil || profile.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (uc *UseCase) typeNames(ctx context.Context, userID string) (map[string]string, error) {
	types, err := uc.types.List(ctx, repository.TaskTypeFilter{UserID: userID, ShowArchived: true})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(types))
	for _, tt := range types {
		names[tt.ID] = tt.Name
	}
	return names, nil
}

func formatHMS(d time.Duration) string {
	seconds := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
