package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalimaclub/kalima/core/event"
	inmemdb "github.com/kalimaclub/kalima/storage/database/inmem"
)

func setup(t *testing.T) *event.Service {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	return event.NewService(inmemdb.NewEventRepository(db))
}

func createEvent(t *testing.T, svc *event.Service, title string) event.Event {
	t.Helper()
	evt, err := svc.Create(context.Background(), "committee-1", event.NewEvent{
		Title:    title,
		Date:     time.Now().Add(48 * time.Hour),
		Location: "Club House",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	return evt
}

func TestService_CRUD(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createEvent(t, svc, "Poetry Night")
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "committee-1", evt.CreatedBy)

	t.Run("get", func(t *testing.T) {
		got, err := svc.GetByID(ctx, evt.ID)
		assert.NoError(t, err)
		assert.Equal(t, evt.Title, got.Title)

		_, err = svc.GetByID(ctx, "nope")
		assert.Equal(t, event.ErrNotFound, err)
	})

	t.Run("partial update", func(t *testing.T) {
		updated, err := svc.Update(ctx, evt.ID, event.UpdateEvent{Location: "Main Hall"})
		assert.NoError(t, err)
		assert.Equal(t, "Main Hall", updated.Location)
		assert.Equal(t, evt.Title, updated.Title) // untouched

		_, err = svc.Update(ctx, "nope", event.UpdateEvent{Title: "x"})
		assert.Equal(t, event.ErrNotFound, err)
	})

	t.Run("query all", func(t *testing.T) {
		createEvent(t, svc, "Debate Club")
		events, err := svc.QueryAll(ctx)
		assert.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, svc.Delete(ctx, evt.ID))
		_, err := svc.GetByID(ctx, evt.ID)
		assert.Equal(t, event.ErrNotFound, err)
	})
}

func TestService_RSVP(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createEvent(t, svc, "Poetry Night")

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.RSVPToEvent(ctx, "user-1", "nope")
		assert.Equal(t, event.ErrNotFound, err)
	})

	t.Run("rsvp and duplicate", func(t *testing.T) {
		r, err := svc.RSVPToEvent(ctx, "user-1", evt.ID)
		assert.NoError(t, err)
		assert.Equal(t, evt.ID, r.EventID)

		_, err = svc.RSVPToEvent(ctx, "user-1", evt.ID)
		assert.Equal(t, event.ErrAlreadyRSVPed, err)
	})

	t.Run("listings", func(t *testing.T) {
		_, err := svc.RSVPToEvent(ctx, "user-2", evt.ID)
		assert.NoError(t, err)

		byEvent, err := svc.EventRSVPs(ctx, evt.ID)
		assert.NoError(t, err)
		assert.Len(t, byEvent, 2)

		byUser, err := svc.UserRSVPs(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, byUser, 1)
	})

	t.Run("cancel frees the slot for a new rsvp", func(t *testing.T) {
		assert.NoError(t, svc.CancelRSVP(ctx, "user-1", evt.ID))

		_, err := svc.RSVPToEvent(ctx, "user-1", evt.ID)
		assert.NoError(t, err)
	})
}

func TestService_CheckIn(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createEvent(t, svc, "Poetry Night")

	t.Run("event check-in denormalizes the title", func(t *testing.T) {
		att, err := svc.CheckInEvent(ctx, "user-1", event.EventCheckIn{EventID: evt.ID})
		assert.NoError(t, err)
		assert.Equal(t, event.TypeEvent, att.Type)
		assert.Equal(t, "Poetry Night", att.EventTitle)
	})

	t.Run("event check-in by session code only", func(t *testing.T) {
		att, err := svc.CheckInEvent(ctx, "user-1", event.EventCheckIn{SessionCode: "PN-01"})
		assert.NoError(t, err)
		assert.Equal(t, "PN-01", att.SessionCode)
		assert.Empty(t, att.EventTitle)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.CheckInEvent(ctx, "user-1", event.EventCheckIn{EventID: "nope"})
		assert.Equal(t, event.ErrNotFound, err)
	})

	t.Run("class check-in", func(t *testing.T) {
		att, err := svc.CheckInClass(ctx, "user-2", event.ClassCheckIn{SessionCode: "HYB03-W1", ClassName: "HYB03"})
		assert.NoError(t, err)
		assert.Equal(t, event.TypeClass, att.Type)
		assert.Equal(t, "HYB03", att.ClassName)
	})

	t.Run("listings and stats", func(t *testing.T) {
		byUser, err := svc.UserAttendance(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, byUser, 2)

		byEvent, err := svc.EventAttendance(ctx, evt.ID)
		assert.NoError(t, err)
		assert.Len(t, byEvent, 1)

		stats, err := svc.Stats(ctx)
		assert.NoError(t, err)
		assert.Equal(t, event.Stats{TotalEvents: 1, TotalAttendance: 3}, stats)
	})

	t.Run("class attendance matches class name or session code", func(t *testing.T) {
		_, err := svc.CheckInClass(ctx, "user-3", event.ClassCheckIn{SessionCode: "HYB03"}) // code doubles as class ref
		assert.NoError(t, err)

		records, err := svc.ClassAttendance(ctx, "HYB03")
		assert.NoError(t, err)
		assert.Len(t, records, 2)
	})
}
