package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/model"
)

// Mirror copies a confirmed booking into an external calendar.
type Mirror interface {
	CreateEvent(ctx context.Context, booking model.BookingRequest) (string, error)
}

// Service writes bookings to a Google Calendar through a service account.
type Service struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

func NewService(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*Service, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Service{svc: svc, calendarID: calendarID, loc: loc}, nil
}

// CreateEvent inserts a one-hour event at the booking's local wall-clock
// slot and returns the created event id.
func (s *Service) CreateEvent(ctx context.Context, booking model.BookingRequest) (string, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", booking.DueDate+" "+booking.DueTime, s.loc)
	if err != nil {
		return "", apperrors.InvalidInput("booking slot", err.Error())
	}
	end := start.Add(time.Hour)

	event := &gcal.Event{
		Summary:     booking.Subject,
		Description: booking.Note,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
	}

	created, err := s.svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", apperrors.Upstream("google-calendar", err)
	}
	return created.Id, nil
}
