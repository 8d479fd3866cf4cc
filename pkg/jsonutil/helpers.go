// Package jsonutil provides JSON output helpers for Areo's command line.
//
// Commands that support --json write their results through Encode so the
// output is stable and diff-friendly.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes v as indented JSON followed by a newline. HTML characters
// are left unescaped so tile URL templates stay readable.
func Encode(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
