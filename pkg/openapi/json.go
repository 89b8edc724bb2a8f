package openapi

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders the spec as indented JSON ending in a newline. HTML
// escaping is off so descriptions keep literal <, > and & characters.
func MarshalJSON(spec *Spec) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
