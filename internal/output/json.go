package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs the full report as indented JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
