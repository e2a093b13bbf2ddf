// Package analytics aggregates closed task records into per-type and per-day
// summaries. Read-only: it consumes the tracker's output and never mutates.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase"
)

// TypeSummary is the tracked total for one task type within a window.
type TypeSummary struct {
	TaskTypeID        string  `json:"task_type_id"`
	Name              string  `json:"task_type_name"`
	Emoji             string  `json:"task_type_emoji,omitempty"`
	Color             string  `json:"task_type_color,omitempty"`
	TotalSeconds      int64   `json:"total_duration"`
	TaskCount         int     `json:"task_count"`
	InterruptedCount  int     `json:"interrupted_count"`
	DurationFormatted string  `json:"duration_formatted"`
	Percentage        float64 `json:"percentage"`
}

// DaySummary is the total tracked on one calendar day.
type DaySummary struct {
	Date           string `json:"date"`
	TotalSeconds   int64  `json:"total_duration"`
	TotalFormatted string `json:"total_formatted"`
}

// DailyReport covers one day.
type DailyReport struct {
	Date           string        `json:"date"`
	TotalSeconds   int64         `json:"total_tracked"`
	TotalFormatted string        `json:"total_tracked_formatted"`
	TaskTypes      []TypeSummary `json:"task_types"`
}

// RangeReport covers a span of days.
type RangeReport struct {
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	Daily          []DaySummary  `json:"daily_data"`
	TaskTypes      []TypeSummary `json:"task_type_summary"`
	TotalSeconds   int64         `json:"total_tracked"`
	TotalFormatted string        `json:"total_tracked_formatted"`
}

type UseCase struct {
	tasks  repository.TaskRepository
	types  repository.TaskTypeRepository
	clock  usecase.Clock
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, types repository.TaskTypeRepository, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if clock == nil {
		clock = usecase.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		types:  types,
		clock:  clock,
		logger: logger,
	}
}

// Today summarizes the current day.
func (uc *UseCase) Today(ctx context.Context, userID string) (*DailyReport, error) {
	return uc.Daily(ctx, userID, uc.clock.Now())
}

// Daily summarizes one calendar day grouped by task type.
func (uc *UseCase) Daily(ctx context.Context, userID string, day time.Time) (*DailyReport, error) {
	from := startOfDay(day)
	until := from.AddDate(0, 0, 1)

	tasks, err := uc.closedTasks(ctx, userID, from, until)
	if err != nil {
		return nil, err
	}
	summary, total, err := uc.summarize(ctx, userID, tasks)
	if err != nil {
		return nil, err
	}

	return &DailyReport{
		Date:           from.Format("2006-01-02"),
		TotalSeconds:   total,
		TotalFormatted: formatDuration(total),
		TaskTypes:      summary,
	}, nil
}

// Range summarizes a span of days with per-day totals and a per-type rollup.
// Both bounds are inclusive calendar days.
func (uc *UseCase) Range(ctx context.Context, userID string, start, end time.Time) (*RangeReport, error) {
	start = startOfDay(start)
	end = startOfDay(end)
	if end.Before(start) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "end date before start date")
	}

	tasks, err := uc.closedTasks(ctx, userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	perDay := make(map[string]int64)
	for _, task := range tasks {
		key := startOfDay(task.StartTime).Format("2006-01-02")
		perDay[key] += int64(task.Duration(time.Time{}).Seconds())
	}

	var daily []DaySummary
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		daily = append(daily, DaySummary{
			Date:           key,
			TotalSeconds:   perDay[key],
			TotalFormatted: formatDuration(perDay[key]),
		})
	}

	summary, total, err := uc.summarize(ctx, userID, tasks)
	if err != nil {
		return nil, err
	}

	return &RangeReport{
		StartDate:      start.Format("2006-01-02"),
		EndDate:        end.Format("2006-01-02"),
		Daily:          daily,
		TaskTypes:      summary,
		TotalSeconds:   total,
		TotalFormatted: formatDuration(total),
	}, nil
}

// LastWeek is the 7-day window ending today.
func (uc *UseCase) LastWeek(ctx context.Context, userID string) (*RangeReport, error) {
	end := uc.clock.Now()
	return uc.Range(ctx, userID, end.AddDate(0, 0, -6), end)
}

func (uc *UseCase) closedTasks(ctx context.Context, userID string, from, until time.Time) ([]domain.Task, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{
		UserID:     userID,
		From:       from,
		Until:      until,
		ClosedOnly: true,
	})
}

func (uc *UseCase) summarize(ctx context.Context, userID string, tasks []domain.Task) ([]TypeSummary, int64, error) {
	types, err := uc.types.List(ctx, repository.TaskTypeFilter{UserID: userID, ShowArchived: true})
	if err != nil {
		return nil, 0, err
	}
	typeByID := make(map[string]domain.TaskType, len(types))
	for _, tt := range types {
		typeByID[tt.ID] = tt
	}

	buckets := make(map[string]*TypeSummary)
	var total int64
	for _, task := range tasks {
		bucket, ok := buckets[task.TaskTypeID]
		if !ok {
			tt := typeByID[task.TaskTypeID]
			bucket = &TypeSummary{
				TaskTypeID: task.TaskTypeID,
				Name:       tt.Name,
				Emoji:      tt.Emoji,
				Color:      tt.Color,
			}
			buckets[task.TaskTypeID] = bucket
		}

		seconds := int64(task.Duration(time.Time{}).Seconds())
		bucket.TotalSeconds += seconds
		bucket.TaskCount++
		if task.Interrupted {
			bucket.InterruptedCount++
		}
		total += seconds
	}

	summary := make([]TypeSummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.DurationFormatted = formatDuration(bucket.TotalSeconds)
		if total > 0 {
			bucket.Percentage = float64(bucket.TotalSeconds) / float64(total) * 100
		}
		summary = append(summary, *bucket)
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].TotalSeconds > summary[j].TotalSeconds
	})

	return summary, total, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func formatDuration(seconds int64) string {
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
