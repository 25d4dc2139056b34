package notes

import (
	"time"

	"github.com/google/uuid"
)

// NoteType classifies a note
type NoteType string

const (
	TypeCall    NoteType = "call"
	TypeEmail   NoteType = "email"
	TypeMeeting NoteType = "meeting"
	TypeNote    NoteType = "note"
)

// Note is a free text entry attached to a quote, a customer or both
type Note struct {
	ID           uuid.UUID `json:"id"`
	QuoteCode    *string   `json:"quote_code,omitempty"`
	CustomerCode *string   `json:"customer_code,omitempty"`
	Content      string    `json:"content"`
	Type         NoteType  `json:"type"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateNoteRequest is the body of POST /notes
type CreateNoteRequest struct {
	QuoteCode    string   `json:"quote_code" validate:"omitempty,max=64"`
	CustomerCode string   `json:"customer_code" validate:"omitempty,max=64"`
	Content      string   `json:"content" validate:"required,max=10000"`
	Type         NoteType `json:"type" validate:"omitempty,oneof=call email meeting note"`
}

// NoteFilter selects notes by quote, customer or text. Zero values match
// every note.
type NoteFilter struct {
	QuoteCode    string `form:"quote_code" validate:"omitempty,max=64"`
	CustomerCode string `form:"customer_code" validate:"omitempty,max=64"`
	Search       string `form:"q" validate:"omitempty,max=200"`
	Type         string `form:"type" validate:"omitempty,oneof=call email meeting note"`
}

// HighlightedQuote is a quote flagged for follow-up
type HighlightedQuote struct {
	QuoteCode string    `json:"quote_code"`
	Priority  int       `json:"priority"`
	Note      string    `json:"note"`
	MarkedAt  time.Time `json:"marked_at"`
}

// HighlightedCustomer is a customer flagged for follow-up
type HighlightedCustomer struct {
	CustomerCode string    `json:"customer_code"`
	CustomerName string    `json:"customer_name"`
	Priority     int       `json:"priority"`
	Note         string    `json:"note"`
	MarkedAt     time.Time `json:"marked_at"`
}

// MarkRequest flags a quote or a customer. Priority defaults to 1.
type MarkRequest struct {
	CustomerName string `json:"customer_name" validate:"omitempty,max=255"`
	Priority     int    `json:"priority" validate:"omitempty,gte=1,lte=5"`
	Note         string `json:"note" validate:"omitempty,max=2000"`
}
