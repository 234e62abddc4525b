package publishers

import (
	"testing"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
)

func TestNewEventOmitsDecodedBodies(t *testing.T) {
	evt := NewEvent(domain.Submission{
		ID:       "sub-1",
		URL:      "https://example.com",
		Outcome:  domain.DecodedText("a large body"),
		Rendered: "a large body",
		Elapsed:  1500 * time.Millisecond,
	})
	if evt.Outcome != "decoded_text" || evt.Message != "" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.ElapsedMs != 1500 || evt.SubmissionID != "sub-1" || evt.CompletedAt.IsZero() {
		t.Fatalf("unexpected event metadata %+v", evt)
	}
}

func TestNewEventCarriesFailureDetails(t *testing.T) {
	evt := NewEvent(domain.Submission{
		ID:       "sub-2",
		URL:      "https://example.com/missing",
		Outcome:  domain.HTTPError(404),
		Rendered: "Bad response code: 404",
	})
	if evt.StatusCode != 404 || evt.Message != "Bad response code: 404" || evt.Outcome != "http_error" {
		t.Fatalf("unexpected event %+v", evt)
	}
}
