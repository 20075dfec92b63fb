package faq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsk(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string // substring of the expected answer
	}{
		{name: "fees", question: "How much is the membership fee?", want: "RM50 per semester"},
		{name: "price synonym", question: "what's the PRICE?", want: "RM50 per semester"},
		{name: "levels", question: "How do level assessments work?", want: "5 proficiency levels"},
		{name: "events", question: "Any events this week?", want: "Events Calendar"},
		{name: "attendance", question: "How do I check in to a class?", want: "session code"},
		{name: "payments", question: "Can I pay by card?", want: "bank transfer or credit card"},
		{name: "tutors", question: "Who are the teachers?", want: "verified by admins"},
		{name: "committee", question: "What does the committee do?", want: "create events"},
		{name: "unknown topic", question: "What is the meaning of life?", want: "I'm here to help!"},
		{name: "empty question", question: "", want: "I'm here to help!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ask(tt.question)
			assert.True(t, strings.Contains(got, tt.want), "Ask(%q) = %q; want substring %q", tt.question, got, tt.want)
		})
	}
}

func TestAsk_FirstMatchWins(t *testing.T) {
	// "fee" outranks "payment" because fee questions are about amounts
	got := Ask("What fee do I pay?")
	assert.Contains(t, got, "RM50 per semester")
}
