package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/calendar"
	"github.com/inmobica/assistant-server/internal/crm"
	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/model"
	"github.com/inmobica/assistant-server/internal/schedule"
)

// Booker turns a complete user context into a CRM appointment.
type Booker interface {
	Book(ctx context.Context, userCtx *model.UserContext) (*model.BookingResult, error)
}

// BookingService runs the linear person → lead → gates → activity pipeline.
// Steps are not compensated: a failure after the person or lead was created
// leaves those records in place, correlated by the booking reference in the
// logs.
type BookingService struct {
	crm       crm.API
	hours     schedule.Hours
	converter *schedule.Converter
	mirror    calendar.Mirror // optional
}

func NewBookingService(api crm.API, hours schedule.Hours, converter *schedule.Converter, mirror calendar.Mirror) *BookingService {
	return &BookingService{
		crm:       api,
		hours:     hours,
		converter: converter,
		mirror:    mirror,
	}
}

func (s *BookingService) Book(ctx context.Context, userCtx *model.UserContext) (*model.BookingResult, error) {
	if missing := userCtx.MissingFields(); len(missing) > 0 {
		return nil, apperrors.ValidationError("booking context incomplete").WithDetails(missing)
	}

	dueTimeUTC, err := s.converter.ToUTC(userCtx.Date, userCtx.Time)
	if err != nil {
		return nil, apperrors.InvalidInput("appointment slot", err.Error())
	}

	ref := uuid.NewString()
	booking := model.NewBookingRequest(ref, userCtx, dueTimeUTC)

	personID, err := s.crm.CreatePerson(ctx, crm.PersonParams{
		Name:  booking.PersonName,
		Email: booking.Email,
		Phone: booking.Phone,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("ref", ref).Int("personId", personID).Msg("crm person created")

	leadID, err := s.crm.CreateLead(ctx, crm.LeadParams{
		Title:    booking.Subject,
		PersonID: personID,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("ref", ref).Str("leadId", leadID).Msg("crm lead created")

	// Gate checks run after the person and lead exist; a rejected slot
	// leaves both records behind.
	within, err := s.hours.Within(booking.DueTime)
	if err != nil {
		return nil, apperrors.InvalidInput("appointment time", err.Error())
	}
	if !within {
		return nil, apperrors.OutsideHours(booking.DueTime)
	}

	conflict, err := s.hasConflict(ctx, booking)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperrors.SlotTaken(booking.DueDate, booking.DueTimeUTC)
	}

	activityID, err := s.crm.CreateActivity(ctx, crm.ActivityParams{
		Subject:  booking.Subject,
		Type:     booking.Type,
		DueDate:  booking.DueDate,
		DueTime:  booking.DueTimeUTC,
		Duration: booking.Duration,
		Note:     booking.Note,
		LeadID:   leadID,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("ref", ref).Int("activityId", activityID).Msg("crm activity created")

	if s.mirror != nil {
		eventID, err := s.mirror.CreateEvent(ctx, booking)
		if err != nil {
			// The CRM is the source of truth; a calendar miss is not fatal.
			log.Warn().Err(err).Str("ref", ref).Msg("calendar mirror failed")
		} else {
			log.Info().Str("ref", ref).Str("eventId", eventID).Msg("calendar event created")
		}
	}

	return &model.BookingResult{
		Reference:  ref,
		PersonID:   personID,
		LeadID:     leadID,
		ActivityID: activityID,
	}, nil
}

// hasConflict lists existing activities and scans for an exact
// (due_date, due_time) match. Best effort only: a concurrent booking that
// passed the same check can still create a duplicate slot.
func (s *BookingService) hasConflict(ctx context.Context, booking model.BookingRequest) (bool, error) {
	activities, err := s.crm.ListActivities(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range activities {
		if a.DueDate == booking.DueDate && a.DueTime == booking.DueTimeUTC {
			return true, nil
		}
	}
	return false, nil
}
