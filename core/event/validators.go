package event

import (
	"time"

	"github.com/kalimaclub/kalima/core"
)

// NewEvent defines what information must be provided to create an event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	SessionCode string    `json:"session_code"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	return core.Validate.Struct(ne)
}

// UpdateEvent carries partial event updates; zero fields are left untouched.
type UpdateEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	SessionCode string    `json:"session_code"`
}

func (ue *UpdateEvent) Validate() error {
	ue.Title = core.CleanString(ue.Title)
	ue.Location = core.CleanString(ue.Location)
	return core.Validate.Struct(ue)
}

// EventCheckIn records presence at an event, by event id and/or session code.
type EventCheckIn struct {
	EventID     string `json:"event_id" validate:"required_without=SessionCode"`
	SessionCode string `json:"session_code" validate:"required_without=EventID"`
}

func (ci *EventCheckIn) Validate() error {
	ci.SessionCode = core.CleanString(ci.SessionCode)
	return core.Validate.Struct(ci)
}

// ClassCheckIn records presence at a class session.
type ClassCheckIn struct {
	SessionCode string `json:"session_code" validate:"required"`
	ClassName   string `json:"class_name" validate:"required"`
}

func (ci *ClassCheckIn) Validate() error {
	ci.SessionCode = core.CleanString(ci.SessionCode)
	ci.ClassName = core.CleanString(ci.ClassName)
	return core.Validate.Struct(ci)
}
