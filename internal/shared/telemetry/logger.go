// Package telemetry emits one JSON object per log line to stdout so the
// process can be scraped by whatever log shipper fronts it.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Info emits an info-level line with the given fields merged in.
func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Error emits an error-level line with the given fields merged in.
func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
}

// write flattens fields into the envelope. Callers must not use the
// reserved keys ts, level, or msg; they are overwritten here.
func write(level, msg string, fields map[string]any) {
	line := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		line[k] = v
	}
	line["ts"] = time.Now().UTC().Format(time.RFC3339)
	line["level"] = level
	line["msg"] = msg

	data, err := json.Marshal(line)
	if err != nil {
		fmt.Fprintf(os.Stdout, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", time.Now().UTC().Format(time.RFC3339), err.Error())
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}
