package models

import "time"

// Session is the server-side replacement for the browser's local storage keys
// access, refresh, role, username, patient_access and patient_name.
type Session struct {
	ID            string    `json:"id"`
	Access        string    `json:"access,omitempty"`
	Refresh       string    `json:"refresh,omitempty"`
	Role          string    `json:"role,omitempty"`
	Username      string    `json:"username,omitempty"`
	PatientAccess string    `json:"patient_access,omitempty"`
	PatientName   string    `json:"patient_name,omitempty"`
	QueueStarted  bool      `json:"queue_started,omitempty"`
	QueueNumber   string    `json:"queue_number,omitempty"`
	Flash         string    `json:"flash,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Session) StaffSignedIn() bool { return s != nil && s.Access != "" }

func (s *Session) PatientSignedIn() bool { return s != nil && s.PatientAccess != "" }

// ClearStaff drops every staff key.
func (s *Session) ClearStaff() {
	s.Access, s.Refresh, s.Role, s.Username = "", "", "", ""
	s.QueueStarted = false
}

// ClearAll empties every key; the session id survives.
func (s *Session) ClearAll() {
	id := s.ID
	*s = Session{ID: id, UpdatedAt: time.Now()}
}

// PopFlash returns and clears the one-shot message.
func (s *Session) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}
