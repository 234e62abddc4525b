package publishers

import (
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
)

// Event represents the payload published downstream for a completed submission.
type Event struct {
	SubmissionID    string    `json:"submission_id"`
	URL             string    `json:"url"`
	Outcome         string    `json:"outcome"`
	StatusCode      int       `json:"status_code,omitempty"`
	Message         string    `json:"message,omitempty"`
	PageTitle       string    `json:"page_title,omitempty"`
	PageDescription string    `json:"page_description,omitempty"`
	ElapsedMs       int64     `json:"elapsed_ms"`
	CompletedAt     time.Time `json:"completed_at"`
}

// NewEvent constructs an Event for the given submission. Decoded bodies are
// not copied into the event; failures carry their rendered message.
func NewEvent(sub domain.Submission) Event {
	evt := Event{
		SubmissionID: sub.ID,
		URL:          sub.URL,
		Outcome:      string(sub.Outcome.Kind),
		StatusCode:   sub.Outcome.StatusCode,
		ElapsedMs:    sub.Elapsed.Milliseconds(),
		CompletedAt:  time.Now().UTC(),
	}
	switch sub.Outcome.Kind {
	case domain.KindDecodedJSON, domain.KindDecodedText:
	default:
		evt.Message = sub.Rendered
	}
	return evt
}
