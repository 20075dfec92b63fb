// Package inmemdb provides map-backed repositories for tests and local runs
// without a database.
package inmemdb

import (
	"sync"

	"github.com/kalimaclub/kalima/core/assessment"
	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
)

type (
	DB struct {
		member     *memberTables
		event      *eventTables
		assessment *assessmentTables
	}

	memberTables struct {
		sync.RWMutex
		profiles           map[string]*member.Profile
		payments           []member.Payment
		grades             []member.Grade
		certificates       []member.Certificate
		levelVerifications []member.LevelVerification
	}

	eventTables struct {
		sync.RWMutex
		events     map[string]*event.Event
		rsvps      []event.RSVP
		attendance []event.Attendance
	}

	assessmentTables struct {
		sync.RWMutex
		assessments map[string]*assessment.Assessment
		submissions []assessment.Submission
	}
)

func Open() (*DB, error) {
	db := &DB{
		member:     &memberTables{profiles: make(map[string]*member.Profile)},
		event:      &eventTables{events: make(map[string]*event.Event)},
		assessment: &assessmentTables{assessments: make(map[string]*assessment.Assessment)},
	}
	return db, nil
}
