package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/event"
)

type eventRepository struct {
	db *eventTables
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return *evt, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0, len(repo.db.events))
	for _, evt := range repo.db.events {
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.events[evt.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.events, id)

	// cascade like the SQL schema does
	rsvps := repo.db.rsvps[:0]
	for _, r := range repo.db.rsvps {
		if r.EventID != id {
			rsvps = append(rsvps, r)
		}
	}
	repo.db.rsvps = rsvps
	return nil
}

func (repo *eventRepository) AppendRSVP(ctx context.Context, r event.RSVP, exec ...core.DBExecutor) (event.RSVP, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	repo.db.rsvps = append(repo.db.rsvps, r)
	return r, nil
}

func (repo *eventRepository) DeleteRSVP(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rsvps := repo.db.rsvps[:0]
	for _, r := range repo.db.rsvps {
		if !(r.UserID == userID && r.EventID == eventID) {
			rsvps = append(rsvps, r)
		}
	}
	repo.db.rsvps = rsvps
	return nil
}

func (repo *eventRepository) ListUserRSVPs(ctx context.Context, userID string, exec ...core.DBExecutor) ([]event.RSVP, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rsvps := make([]event.RSVP, 0)
	for _, r := range repo.db.rsvps {
		if r.UserID == userID {
			rsvps = append(rsvps, r)
		}
	}
	return rsvps, nil
}

func (repo *eventRepository) ListEventRSVPs(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]event.RSVP, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rsvps := make([]event.RSVP, 0)
	for _, r := range repo.db.rsvps {
		if r.EventID == eventID {
			rsvps = append(rsvps, r)
		}
	}
	return rsvps, nil
}

func (repo *eventRepository) IsRSVPed(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.rsvps {
		if r.UserID == userID && r.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *eventRepository) AppendAttendance(ctx context.Context, att event.Attendance, exec ...core.DBExecutor) (event.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	att.ID = uuid.New().String()
	repo.db.attendance = append(repo.db.attendance, att)
	return att, nil
}

func (repo *eventRepository) ListUserAttendance(ctx context.Context, userID string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]event.Attendance, 0)
	for _, att := range repo.db.attendance {
		if att.UserID == userID {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *eventRepository) ListEventAttendance(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]event.Attendance, 0)
	for _, att := range repo.db.attendance {
		if att.EventID == eventID {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *eventRepository) ListClassAttendance(ctx context.Context, classRef string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]event.Attendance, 0)
	for _, att := range repo.db.attendance {
		if att.ClassName == classRef || att.SessionCode == classRef {
			records = append(records, att)
		}
	}
	return records, nil
}

func (repo *eventRepository) CountEvents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.events), nil
}

func (repo *eventRepository) CountAttendance(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.attendance), nil
}
