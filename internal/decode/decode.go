// Package decode turns raw stream payloads into the opaque text written to
// the CSV sink.
package decode

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// DataField is the field extracted from object payloads.
const DataField = "data"

// ErrEmpty is returned for an empty payload.
var ErrEmpty = errors.New("empty payload")

// Value renders payload as a single-line string.
//
// JSON objects with a "data" field yield that field; strings are unquoted.
// Any other valid JSON yields its compact raw text. Non-JSON payloads pass
// through as text. Line breaks are replaced by spaces so a value can never
// split a row. typ is advisory and does not change the result.
func Value(typ string, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmpty
	}

	if !gjson.ValidBytes(payload) {
		return singleLine(string(payload)), nil
	}

	res := gjson.ParseBytes(payload)
	if res.IsObject() {
		if data := res.Get(DataField); data.Exists() {
			res = data
		}
	}
	return singleLine(render(res)), nil
}

func render(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.Null:
		return ""
	case gjson.Number:
		return res.Raw
	default:
		return strings.TrimSpace(res.Raw)
	}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
