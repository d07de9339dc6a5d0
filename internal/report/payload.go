package report

import (
	"encoding/json"
	"io"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// WritePayload encodes v (a core.Payload or an error document) as JSON.
// Output is pretty printed unless compact is set; slashes and HTML
// characters are never escaped.
func WritePayload(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(v)
}

// WriteFatal writes the error document of a batch-level failure.
func WriteFatal(w io.Writer, err error, compact bool) error {
	return WritePayload(w, core.AsFatal(err).JSON(), compact)
}
