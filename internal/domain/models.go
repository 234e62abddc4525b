package domain

import "time"

// Domain contains core models shared across packages.

// RequestInput is the raw text a user submitted. It may be empty or malformed.
type RequestInput struct {
	Raw string
}

// OutcomeKind tags the variant carried by an Outcome.
type OutcomeKind string

const (
	KindInvalidInput           OutcomeKind = "invalid_input"
	KindInvalidURL             OutcomeKind = "invalid_url"
	KindTransportError         OutcomeKind = "transport_error"
	KindUnexpectedResponseType OutcomeKind = "unexpected_response_type"
	KindHTTPError              OutcomeKind = "http_error"
	KindEmptyBody              OutcomeKind = "empty_body"
	KindDecodedJSON            OutcomeKind = "decoded_json"
	KindDecodedText            OutcomeKind = "decoded_text"
	KindDecodeFailure          OutcomeKind = "decode_failure"
)

// Kinds lists every outcome kind.
var Kinds = []OutcomeKind{
	KindInvalidInput,
	KindInvalidURL,
	KindTransportError,
	KindUnexpectedResponseType,
	KindHTTPError,
	KindEmptyBody,
	KindDecodedJSON,
	KindDecodedText,
	KindDecodeFailure,
}

// Outcome is the tagged result of one dispatch attempt. Only the fields
// relevant to Kind are populated.
type Outcome struct {
	Kind       OutcomeKind
	Message    string // TransportError, DecodeFailure
	StatusCode int    // HTTPError
	JSON       any    // DecodedJSON
	Text       string // DecodedText
}

func InvalidInput() Outcome           { return Outcome{Kind: KindInvalidInput} }
func InvalidURL() Outcome             { return Outcome{Kind: KindInvalidURL} }
func UnexpectedResponseType() Outcome { return Outcome{Kind: KindUnexpectedResponseType} }
func EmptyBody() Outcome              { return Outcome{Kind: KindEmptyBody} }

func TransportError(msg string) Outcome {
	return Outcome{Kind: KindTransportError, Message: msg}
}

func HTTPError(status int) Outcome {
	return Outcome{Kind: KindHTTPError, StatusCode: status}
}

func DecodedJSON(v any) Outcome {
	return Outcome{Kind: KindDecodedJSON, JSON: v}
}

func DecodedText(s string) Outcome {
	return Outcome{Kind: KindDecodedText, Text: s}
}

func DecodeFailure(msg string) Outcome {
	return Outcome{Kind: KindDecodeFailure, Message: msg}
}

// IsInputError reports whether the outcome was produced before any network call.
func (o Outcome) IsInputError() bool {
	return o.Kind == KindInvalidInput || o.Kind == KindInvalidURL
}

// Submission describes one completed dispatch as seen by observers.
type Submission struct {
	ID        string
	Input     RequestInput
	URL       string
	Outcome   Outcome
	Rendered  string
	StartedAt time.Time
	Elapsed   time.Duration
}

// HistoryEntry is the audit record persisted for a submission.
type HistoryEntry struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Kind       OutcomeKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	At         time.Time   `json:"at"`
}
