// Package iojson writes command output as JSON, either one compact object
// per line for streaming or indented for reports.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteLine encodes obj as a single line of JSON.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal json line: %w", err)
	}

	bits = append(bits, '\n')
	_, err = w.Write(bits)
	return err
}

// WriteIndent encodes obj as indented JSON followed by a newline.
func WriteIndent(w io.Writer, obj any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}
