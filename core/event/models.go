package event

import "time"

// Attendance types
const (
	TypeEvent = "event"
	TypeClass = "class"
)

// Event is a club activity members can RSVP to and check in at.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"` // UTC
	Location    string    `json:"location"`
	SessionCode string    `json:"session_code,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// RSVP records a member's intent to attend an event. One per user+event.
type RSVP struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	EventID  string    `json:"event_id"`
	RSVPedAt time.Time `json:"rsvped_at"` // UTC
}

// Attendance is an append-only check-in record, either against an event or a
// class session.
type Attendance struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id,omitempty"`
	EventTitle  string    `json:"event_title,omitempty"`
	SessionCode string    `json:"session_code,omitempty"`
	ClassName   string    `json:"class_name,omitempty"`
	Type        string    `json:"type"`
	CheckedInAt time.Time `json:"checked_in_at"` // UTC
}

// Stats feeds the admin dashboard.
type Stats struct {
	TotalEvents     int `json:"total_events"`
	TotalAttendance int `json:"total_attendance"`
}
