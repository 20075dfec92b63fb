package pgrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/event"
)

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func scanEvent(sc scanner) (event.Event, error) {
	var evt event.Event
	var desc, code null.String
	err := sc.Scan(&evt.ID, &evt.Title, &desc, &evt.Date, &evt.Location, &code, &evt.CreatedBy, &evt.CreatedAt)
	if err != nil {
		return event.Event{}, err
	}
	evt.Description = desc.String
	evt.SessionCode = code.String
	return evt, nil
}

// trapNoEventErr maps psql "no rows" err to event.ErrNotFound
func trapNoEventErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return event.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	evt.ID = uuid.New().String()
	query := `
		INSERT INTO event (id, title, description, date, location, session_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		evt.ID,
		evt.Title,
		null.NewString(evt.Description, evt.Description != ""),
		evt.Date.UTC(),
		evt.Location,
		null.NewString(evt.SessionCode, evt.SessionCode != ""),
		evt.CreatedBy,
		evt.CreatedAt.UTC(),
	)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (event.Event, error) {
	query := `SELECT id, title, description, date, location, session_code, created_by, created_at FROM event WHERE id = $1`
	evt, err := scanEvent(repo.getExec(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return event.Event{}, trapNoEventErr(err, "getting event")
	}
	return evt, nil
}

func (repo eventRepository) QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]event.Event, error) {
	query := `SELECT id, title, description, date, location, session_code, created_by, created_at FROM event ORDER BY date ASC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	defer func() { _ = rows.Close() }()

	events := make([]event.Event, 0)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning event")
		}
		events = append(events, evt)
	}
	return events, errors.Wrap(rows.Err(), "iterating events")
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	query := `
		UPDATE event
		SET title = $2, description = $3, date = $4, location = $5, session_code = $6
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		evt.ID,
		evt.Title,
		null.NewString(evt.Description, evt.Description != ""),
		evt.Date.UTC(),
		evt.Location,
		null.NewString(evt.SessionCode, evt.SessionCode != ""),
	)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return evt, nil
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM event WHERE id = $1`, id)
	return errors.Wrap(err, "deleting event")
}

func (repo eventRepository) AppendRSVP(ctx context.Context, r event.RSVP, exec ...core.DBExecutor) (event.RSVP, error) {
	r.ID = uuid.New().String()
	query := `INSERT INTO rsvp (id, user_id, event_id, rsvped_at) VALUES ($1, $2, $3, $4)`
	_, err := repo.getExec(exec).ExecContext(ctx, query, r.ID, r.UserID, r.EventID, r.RSVPedAt.UTC())
	if err != nil {
		return event.RSVP{}, errors.Wrap(err, "inserting rsvp")
	}
	return r, nil
}

func (repo eventRepository) DeleteRSVP(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM rsvp WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	return errors.Wrap(err, "deleting rsvp")
}

func (repo eventRepository) ListUserRSVPs(ctx context.Context, userID string, exec ...core.DBExecutor) ([]event.RSVP, error) {
	return repo.listRSVPs(ctx, `user_id`, userID, exec)
}

func (repo eventRepository) ListEventRSVPs(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]event.RSVP, error) {
	return repo.listRSVPs(ctx, `event_id`, eventID, exec)
}

func (repo eventRepository) listRSVPs(ctx context.Context, column, value string, exec []core.DBExecutor) ([]event.RSVP, error) {
	query := `SELECT id, user_id, event_id, rsvped_at FROM rsvp WHERE ` + column + ` = $1 ORDER BY rsvped_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, value)
	if err != nil {
		return nil, errors.Wrap(err, "querying rsvps")
	}
	defer func() { _ = rows.Close() }()

	rsvps := make([]event.RSVP, 0)
	for rows.Next() {
		var r event.RSVP
		if err = rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.RSVPedAt); err != nil {
			return nil, errors.Wrap(err, "scanning rsvp")
		}
		rsvps = append(rsvps, r)
	}
	return rsvps, errors.Wrap(rows.Err(), "iterating rsvps")
}

func (repo eventRepository) IsRSVPed(ctx context.Context, userID, eventID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rsvp WHERE user_id = $1 AND event_id = $2)`
	err := repo.getExec(exec).QueryRowContext(ctx, query, userID, eventID).Scan(&exists)
	return exists, errors.Wrap(err, "checking rsvp")
}

func (repo eventRepository) AppendAttendance(ctx context.Context, att event.Attendance, exec ...core.DBExecutor) (event.Attendance, error) {
	att.ID = uuid.New().String()
	query := `
		INSERT INTO attendance (id, user_id, event_id, event_title, session_code, class_name, type, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		att.ID,
		att.UserID,
		null.NewString(att.EventID, att.EventID != ""),
		null.NewString(att.EventTitle, att.EventTitle != ""),
		null.NewString(att.SessionCode, att.SessionCode != ""),
		null.NewString(att.ClassName, att.ClassName != ""),
		att.Type,
		att.CheckedInAt.UTC(),
	)
	if err != nil {
		return event.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo eventRepository) ListUserAttendance(ctx context.Context, userID string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	return repo.listAttendance(ctx, `user_id`, userID, exec)
}

func (repo eventRepository) ListEventAttendance(ctx context.Context, eventID string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	return repo.listAttendance(ctx, `event_id`, eventID, exec)
}

func (repo eventRepository) listAttendance(ctx context.Context, column, value string, exec []core.DBExecutor) ([]event.Attendance, error) {
	query := `
		SELECT id, user_id, event_id, event_title, session_code, class_name, type, checked_in_at
		FROM attendance WHERE ` + column + ` = $1 ORDER BY checked_in_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, value)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	defer func() { _ = rows.Close() }()

	records := make([]event.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning attendance")
		}
		records = append(records, att)
	}
	return records, errors.Wrap(rows.Err(), "iterating attendance")
}

func (repo eventRepository) ListClassAttendance(ctx context.Context, classRef string, exec ...core.DBExecutor) ([]event.Attendance, error) {
	query := `
		SELECT id, user_id, event_id, event_title, session_code, class_name, type, checked_in_at
		FROM attendance WHERE class_name = $1 OR session_code = $1 ORDER BY checked_in_at DESC`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, classRef)
	if err != nil {
		return nil, errors.Wrap(err, "querying class attendance")
	}
	defer func() { _ = rows.Close() }()

	records := make([]event.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning attendance")
		}
		records = append(records, att)
	}
	return records, errors.Wrap(rows.Err(), "iterating attendance")
}

func scanAttendance(sc scanner) (event.Attendance, error) {
	var att event.Attendance
	var eventID, title, code, class null.String
	err := sc.Scan(&att.ID, &att.UserID, &eventID, &title, &code, &class, &att.Type, &att.CheckedInAt)
	if err != nil {
		return event.Attendance{}, err
	}
	att.EventID = eventID.String
	att.EventTitle = title.String
	att.SessionCode = code.String
	att.ClassName = class.String
	return att, nil
}

func (repo eventRepository) CountEvents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM event`).Scan(&count)
	return count, errors.Wrap(err, "counting events")
}

func (repo eventRepository) CountAttendance(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`).Scan(&count)
	return count, errors.Wrap(err, "counting attendance")
}
