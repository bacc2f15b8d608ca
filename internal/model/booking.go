package model

import "fmt"

// BookingRequest is a candidate appointment derived from a complete
// UserContext. It exists only for the duration of one request.
type BookingRequest struct {
	Reference  string // correlates pipeline steps in logs
	Subject    string
	Type       string
	DueDate    string // 2006-01-02, local calendar date
	DueTime    string // HH:MM, local wall clock
	DueTimeUTC string // HH:MM, converted
	Duration   string // HH:MM
	Note       string
	PersonName string
	Email      string
	Phone      string
}

// BookingResult reports the ids created by a completed pipeline run.
type BookingResult struct {
	Reference  string `json:"reference"`
	PersonID   int    `json:"personId"`
	LeadID     string `json:"leadId"`
	ActivityID int    `json:"activityId"`
}

// NewBookingRequest builds the appointment payload for a ready context.
func NewBookingRequest(ref string, c *UserContext, dueTimeUTC string) BookingRequest {
	return BookingRequest{
		Reference:  ref,
		Subject:    fmt.Sprintf("Cita: %s - %s", c.Service, c.Name),
		Type:       "meeting",
		DueDate:    c.Date,
		DueTime:    c.Time,
		DueTimeUTC: dueTimeUTC,
		Duration:   "01:00",
		Note:       fmt.Sprintf("Servicio: %s. Agendado por el asistente (ref %s).", c.Service, ref),
		PersonName: c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
	}
}
