package models

import "time"

// TicketStatus is one of the named workstates a ticket moves through.
type TicketStatus string

const (
	StatusOpen            TicketStatus = "Open"
	StatusInAnalysis      TicketStatus = "In Analysis"
	StatusAwaitingInfo    TicketStatus = "Awaiting Info"
	StatusInDevelopment   TicketStatus = "In Development"
	StatusCodeReview      TicketStatus = "Code Review"
	StatusReadyForQA      TicketStatus = "Ready for QA"
	StatusInQA            TicketStatus = "In QA"
	StatusUAT             TicketStatus = "UAT"
	StatusReadyForRelease TicketStatus = "Ready for Release"
	StatusReleased        TicketStatus = "Released"
	StatusCancelled       TicketStatus = "Cancelled"
)

var ticketStatuses = []TicketStatus{
	StatusOpen,
	StatusInAnalysis,
	StatusAwaitingInfo,
	StatusInDevelopment,
	StatusCodeReview,
	StatusReadyForQA,
	StatusInQA,
	StatusUAT,
	StatusReadyForRelease,
	StatusReleased,
	StatusCancelled,
}

// TicketStatuses lists every known workstate.
func TicketStatuses() []TicketStatus {
	out := make([]TicketStatus, len(ticketStatuses))
	copy(out, ticketStatuses)
	return out
}

// Valid reports whether s is a known workstate.
func (s TicketStatus) Valid() bool {
	for _, known := range ticketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s closes the ticket.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusReleased || s == StatusCancelled
}

// Ticket is a support or change request tracked through release.
type Ticket struct {
	BaseModel

	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TicketStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	Priority    string       `gorm:"type:varchar(32);index" json:"priority"`
	Type        string       `gorm:"type:varchar(64)" json:"type"`
	SupportArea string       `gorm:"type:varchar(128)" json:"support_area"`

	RequesterID *string `gorm:"type:uuid;index" json:"requester_id"`
	AssigneeID  *string `gorm:"type:uuid;index" json:"assignee_id"`
	ReleaseID   *string `gorm:"type:uuid;index" json:"release_id"`

	SolutionNotes string `gorm:"type:text" json:"solution_notes"`
	TestNotes     string `gorm:"type:text" json:"test_notes"`

	ClosedDate *time.Time `json:"closed_date"`
}

// ApplyStatus moves the ticket to next and maintains ClosedDate: entering a terminal
// status stamps it (keeping an existing stamp), leaving one clears it.
func (t *Ticket) ApplyStatus(next TicketStatus, now time.Time) {
	switch {
	case next.IsTerminal():
		if t.ClosedDate == nil {
			stamp := now.UTC()
			t.ClosedDate = &stamp
		}
	default:
		t.ClosedDate = nil
	}
	t.Status = next
}

// Assignee returns the assignee id or an empty string.
func (t Ticket) Assignee() string {
	return deref(t.AssigneeID)
}

// Requester returns the requester id or an empty string.
func (t Ticket) Requester() string {
	return deref(t.RequesterID)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
