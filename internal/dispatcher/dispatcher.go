package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
	"github.com/Adda-Baaj/webservice-probe/internal/logger"
	"github.com/Adda-Baaj/webservice-probe/pkg/httpclient"
)

const decodeFailureMessage = "Encountered an error converting the data to a dictionary or string."

// Dispatcher validates a URL, performs a single GET and classifies the result.
// It keeps no state between calls and is safe for concurrent use.
type Dispatcher struct {
	client httpclient.Client
	log    logger.Logger
}

// New builds a Dispatcher over client. A nil client falls back to a resty
// client with transport defaults.
func New(client httpclient.Client, log logger.Logger) *Dispatcher {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &Dispatcher{client: client, log: logger.Ensure(log)}
}

// ParseTarget turns raw input into an absolute URL. The returned outcome is
// only meaningful when ok is false.
func ParseTarget(in domain.RequestInput) (*url.URL, domain.Outcome, bool) {
	raw := strings.TrimSpace(in.Raw)
	if raw == "" {
		return nil, domain.InvalidInput(), false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, domain.InvalidURL(), false
	}
	return u, domain.Outcome{}, true
}

// Dispatch runs one request for in. Every path returns an Outcome; network
// I/O happens only after the input validates.
func (d *Dispatcher) Dispatch(ctx context.Context, in domain.RequestInput) domain.Outcome {
	target, outcome, ok := ParseTarget(in)
	if !ok {
		return outcome
	}
	return d.Fetch(ctx, target)
}

// Fetch issues the GET for an already validated URL.
func (d *Dispatcher) Fetch(ctx context.Context, target *url.URL) domain.Outcome {
	resp, err := d.client.Get(ctx, target.String(), nil)
	if err != nil {
		d.log.DebugObj("dispatch transport failure", "dispatch_error", map[string]any{
			"url":   target.Redacted(),
			"error": err.Error(),
		})
		return domain.TransportError(describeTransportError(err))
	}
	if resp == nil || !isHTTPProto(resp.Proto()) {
		return domain.UnexpectedResponseType()
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.HTTPError(resp.StatusCode())
	}
	return Decode(resp.Body())
}

// Decode interprets a 200 response body: JSON first, then UTF-8 text.
func Decode(body []byte) domain.Outcome {
	if len(body) == 0 {
		return domain.EmptyBody()
	}

	if v, err := decodeJSON(body); err == nil {
		return domain.DecodedJSON(v)
	}

	if utf8.Valid(body) {
		return domain.DecodedText(string(body))
	}
	return domain.DecodeFailure(decodeFailureMessage)
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after json value")
	}
	return v, nil
}

func isHTTPProto(proto string) bool {
	// Some transports leave Proto empty; the status code is still authoritative.
	return proto == "" || strings.HasPrefix(proto, "HTTP/")
}

func describeTransportError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "The request failed."
	}
	return msg
}
