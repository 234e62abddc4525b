package dispatcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
)

// Display strings shared with the console front end.
const (
	ErrorTitle     = "Error"
	PendingMessage = "Making the HTTP request now..."

	invalidInputMessage = "Please enter a URL of the webservice."
	invalidURLMessage   = "Please enter a valid URL."
	noResponseMessage   = "No decodable response"
	emptyBodyMessage    = "No data to decode"
)

// Render maps an outcome to its display string. It is pure and handles every kind.
func Render(o domain.Outcome) string {
	switch o.Kind {
	case domain.KindInvalidInput:
		return invalidInputMessage
	case domain.KindInvalidURL:
		return invalidURLMessage
	case domain.KindTransportError:
		return o.Message
	case domain.KindUnexpectedResponseType:
		return noResponseMessage
	case domain.KindHTTPError:
		return "Bad response code: " + strconv.Itoa(o.StatusCode)
	case domain.KindEmptyBody:
		return emptyBodyMessage
	case domain.KindDecodedJSON:
		return renderJSON(o.JSON)
	case domain.KindDecodedText:
		return o.Text
	case domain.KindDecodeFailure:
		return o.Message
	default:
		return fmt.Sprintf("Unknown outcome %q", o.Kind)
	}
}

// renderJSON prints the value as indented JSON. Object keys come out sorted,
// which keeps the output deterministic.
func renderJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimRight(buf.String(), "\n")
}
