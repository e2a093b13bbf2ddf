package export

import (
	"context"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
)

func validFrequency(freq string) bool {
	switch freq {
	case domain.ExportDaily, domain.ExportWeekly, domain.ExportMonthly:
		return true
	}
	return false
}

// ListSchedules returns the user's recurring exports.
func (uc *UseCase) ListSchedules(ctx context.Context, userID string) ([]domain.ScheduledExport, error) {
	return uc.exports.ListByUser(ctx, userID)
}

// CreateSchedule registers a recurring export. When no destination address is
// given, the profile's export email is used.
func (uc *UseCase) CreateSchedule(ctx context.Context, export *domain.ScheduledExport) (*domain.ScheduledExport, error) {
	if export == nil || export.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if !validFrequency(export.Frequency) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "frequency must be daily, weekly, or monthly")
	}

	if export.EmailTo == "" {
		profile, err := uc.profiles.GetByUserID(ctx, export.UserID)
		if err != nil {
			return nil, err
		}
		if profile.ExportEmail != "" {
			export.EmailTo = profile.ExportEmail
		} else {
			export.EmailTo = profile.Email
		}
	}
	if export.EmailTo == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "no destination email configured")
	}

	export.IsActive = true
	export.Advance(uc.clock.Now())

	created, err := uc.exports.Create(ctx, export)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("scheduled export created",
		zap.String("user_id", created.UserID),
		zap.String("frequency", created.Frequency))
	return created, nil
}

// UpdateSchedule changes frequency, destination, or active state. Ownership is
// checked before anything is written.
func (uc *UseCase) UpdateSchedule(ctx context.Context, userID string, export *domain.ScheduledExport) (*domain.ScheduledExport, error) {
	if export == nil || export.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	existing, err := uc.exports.GetByID(ctx, export.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, domain.ErrExportNotFound
	}

	if export.Frequency != "" {
		if !validFrequency(export.Frequency) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "frequency must be daily, weekly, or monthly")
		}
		existing.Frequency = export.Frequency
		existing.NextScheduled = uc.clock.Now()
		existing.Advance(uc.clock.Now())
	}
	if export.EmailTo != "" {
		existing.EmailTo = export.EmailTo
	}
	existing.IsActive = export.IsActive

	if err := uc.exports.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteSchedule removes a recurring export after checking ownership.
func (uc *UseCase) DeleteSchedule(ctx context.Context, userID, id string) error {
	existing, err := uc.exports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return domain.ErrExportNotFound
	}
	return uc.exports.Delete(ctx, id)
}
