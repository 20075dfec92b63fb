package event

import (
	"context"
	"errors"
	"time"

	"github.com/kalimaclub/kalima/core"
)

var (
	// errors
	ErrNotFound      = errors.New("event not found")
	ErrAlreadyRSVPed = errors.New("already RSVPed to this event")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error

		AppendRSVP(ctx context.Context, r RSVP, exec ...core.DBExecutor) (RSVP, error)
		DeleteRSVP(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) error
		ListUserRSVPs(ctx context.Context, userID string, exec ...core.DBExecutor) ([]RSVP, error)
		ListEventRSVPs(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]RSVP, error)
		IsRSVPed(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) (bool, error)

		AppendAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		ListUserAttendance(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Attendance, error)
		ListEventAttendance(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]Attendance, error)
		// ListClassAttendance matches records whose class name or session code equals classRef.
		ListClassAttendance(ctx context.Context, classRef string, exec ...core.DBExecutor) ([]Attendance, error)
		CountEvents(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountAttendance(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Date:        ne.Date.UTC(),
		Location:    ne.Location,
		SessionCode: ne.SessionCode,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryAllEvents(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if ue.Title != "" {
		evt.Title = ue.Title
	}
	if ue.Description != "" {
		evt.Description = ue.Description
	}
	if !ue.Date.IsZero() {
		evt.Date = ue.Date.UTC()
	}
	if ue.Location != "" {
		evt.Location = ue.Location
	}
	if ue.SessionCode != "" {
		evt.SessionCode = ue.SessionCode
	}
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}

// RSVPToEvent registers a member's intent to attend. A second RSVP for the
// same user+event is rejected.
func (svc *Service) RSVPToEvent(ctx context.Context, userID, eventID string) (RSVP, error) {
	if _, err := svc.repo.GetEvent(ctx, eventID); err != nil {
		return RSVP{}, err
	}
	rsvped, err := svc.repo.IsRSVPed(ctx, userID, eventID)
	if err != nil {
		return RSVP{}, err
	}
	if rsvped {
		return RSVP{}, ErrAlreadyRSVPed
	}
	return svc.repo.AppendRSVP(ctx, RSVP{
		UserID:   userID,
		EventID:  eventID,
		RSVPedAt: time.Now().UTC(),
	})
}

func (svc *Service) CancelRSVP(ctx context.Context, userID, eventID string) error {
	return svc.repo.DeleteRSVP(ctx, userID, eventID)
}

func (svc *Service) UserRSVPs(ctx context.Context, userID string) ([]RSVP, error) {
	return svc.repo.ListUserRSVPs(ctx, userID)
}

func (svc *Service) EventRSVPs(ctx context.Context, eventID string) ([]RSVP, error) {
	return svc.repo.ListEventRSVPs(ctx, eventID)
}

// CheckInEvent appends an event check-in. The event title is denormalized into
// the attendance record so listings need no join.
func (svc *Service) CheckInEvent(ctx context.Context, userID string, ci EventCheckIn) (Attendance, error) {
	att := Attendance{
		UserID:      userID,
		EventID:     ci.EventID,
		SessionCode: ci.SessionCode,
		Type:        TypeEvent,
		CheckedInAt: time.Now().UTC(),
	}
	if ci.EventID != "" {
		evt, err := svc.repo.GetEvent(ctx, ci.EventID)
		if err != nil {
			return Attendance{}, err
		}
		att.EventTitle = evt.Title
	}
	return svc.repo.AppendAttendance(ctx, att)
}

// CheckInClass appends a class-session check-in keyed by session code.
func (svc *Service) CheckInClass(ctx context.Context, userID string, ci ClassCheckIn) (Attendance, error) {
	att := Attendance{
		UserID:      userID,
		SessionCode: ci.SessionCode,
		ClassName:   ci.ClassName,
		Type:        TypeClass,
		CheckedInAt: time.Now().UTC(),
	}
	return svc.repo.AppendAttendance(ctx, att)
}

func (svc *Service) UserAttendance(ctx context.Context, userID string) ([]Attendance, error) {
	return svc.repo.ListUserAttendance(ctx, userID)
}

func (svc *Service) EventAttendance(ctx context.Context, eventID string) ([]Attendance, error) {
	return svc.repo.ListEventAttendance(ctx, eventID)
}

// ClassAttendance lists check-ins for a class, matched by class name or by
// session code since class sessions carry either.
func (svc *Service) ClassAttendance(ctx context.Context, classRef string) ([]Attendance, error) {
	return svc.repo.ListClassAttendance(ctx, classRef)
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	events, err := svc.repo.CountEvents(ctx)
	if err != nil {
		return Stats{}, err
	}
	attendance, err := svc.repo.CountAttendance(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalEvents: events, TotalAttendance: attendance}, nil
}
