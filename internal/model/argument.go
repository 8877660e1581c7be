package model

import (
	"strings"
	"time"
)

// Comment is a citizen comment on a bill, as supplied by the comment repository
type Comment struct {
	ID        string    `json:"comment_id"`
	BillID    string    `json:"bill_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Argument is the structured form of one comment
type Argument struct {
	ID          string     `json:"id"`
	BillID      string     `json:"bill_id"`
	UserID      string     `json:"user_id"`
	CommentID   string     `json:"comment_id,omitempty"`
	Claims      []Claim    `json:"claims"`
	Evidence    []Evidence `json:"evidence"`
	Reasoning   string     `json:"reasoning"`
	Strength    float64    `json:"strength"` // 0..1
	Position    Position   `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Text returns the claim and evidence text of the argument, falling back to
// its reasoning when neither exists
func (a Argument) Text() string {
	var parts []string
	for _, c := range a.Claims {
		parts = append(parts, c.Text)
	}
	for _, e := range a.Evidence {
		parts = append(parts, e.Text)
	}
	if len(parts) == 0 {
		return a.Reasoning
	}
	return strings.Join(parts, " ")
}

// Stakeholder is the metadata known about a commenter
type Stakeholder struct {
	UserID      string `json:"user_id"`
	Region      string `json:"region,omitempty"`      // e.g. county
	Demographic string `json:"demographic,omitempty"` // e.g. age band
	Sector      string `json:"sector,omitempty"`      // e.g. agriculture, civil society
}
