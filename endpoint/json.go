package endpoint

import (
	"encoding/json"
	"net/http"
)

// JSONRenderer serializes Value as JSON with a trailing newline.
//
// Content-Type is always "application/json". HTML characters are not escaped.
// Since the status has been written before encoding starts, an encoding error
// is returned only as a best-effort signal.
type JSONRenderer struct {
	Status int
	Value  any
	// Indent, when set, pretty-prints with this per-level indent.
	Indent string
}

func (jr *JSONRenderer) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOr(jr.Status, http.StatusOK))

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if jr.Indent != "" {
		enc.SetIndent("", jr.Indent)
	}
	return enc.Encode(jr.Value)
}
