package model

import "strings"

// Application links a candidate to the jobs they applied for.
type Application struct {
	ID          string   `json:"id"`
	CandidateID string   `json:"candidate_id"`
	Jobs        []string `json:"jobs"`
}

// Candidate is the person being interviewed.
type Candidate struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Title     string `json:"title"`
}

// FullName joins the candidate's first and last name.
func (c Candidate) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// ReminderDetails is everything the message formatter needs to render a reminder.
type ReminderDetails struct {
	Interview   InterviewSnapshot
	Application Application
	Candidate   Candidate
}
