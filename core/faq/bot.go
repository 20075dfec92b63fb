// Package faq answers common member questions with fixed-string keyword
// matching. There is deliberately no scoring or NLP; the first matching entry
// wins.
package faq

import "strings"

const defaultAnswer = "I'm here to help! Please ask me about:\n" +
	"- Membership fees and registration\n" +
	"- Class schedules and locations\n" +
	"- Events and activities\n" +
	"- Payment methods\n" +
	"- Level assessments"

type entry struct {
	keywords []string
	answer   string
}

// entries are checked in order; keep the more specific topics first.
var entries = []entry{
	{
		keywords: []string{"fee", "price", "cost"},
		answer:   "Membership fee is RM50 per semester for students. Committee members and tutors get free access after admin verification.",
	},
	{
		keywords: []string{"level", "assessment"},
		answer:   "There are 5 proficiency levels. You start at Level 1 and can advance through assessments. Complete assessments to progress to the next level!",
	},
	{
		keywords: []string{"event", "activity"},
		answer:   "Check the Events Calendar for upcoming activities! You can RSVP to events and receive notifications about venue changes and reminders.",
	},
	{
		keywords: []string{"checkin", "check in", "attendance"},
		answer:   "You can check in to events and classes using QR codes or session codes. Just scan the QR code or enter the session code provided by your tutor or at the event.",
	},
	{
		keywords: []string{"payment", "pay"},
		answer:   "Payments can be made through bank transfer or credit card. Once paid, your membership will be activated immediately.",
	},
	{
		keywords: []string{"tutor", "teacher"},
		answer:   "Our tutors are verified by admins. If you're a tutor, sign up and wait for admin approval to access the tutor dashboard where you can manage classes and grade students.",
	},
	{
		keywords: []string{"committee"},
		answer:   "Committee members can create events, generate QR codes for events, and help manage club activities. Sign up requires admin verification.",
	},
}

// Ask returns the canned answer for the first topic whose keyword appears in
// the question, or a generic help answer.
func Ask(question string) string {
	q := strings.ToLower(question)
	for _, e := range entries {
		for _, kw := range e.keywords {
			if strings.Contains(q, kw) {
				return e.answer
			}
		}
	}
	return defaultAnswer
}
