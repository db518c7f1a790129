package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// payloadFlags maps string flags to event fields.
var payloadFlags = []struct {
	flag, field, usage string
}{
	{"text", "event_text", "Event text"},
	{"type", "event_type", "Event type, e.g. social, work"},
	{"subtype", "event_subtype", "Event subtype"},
	{"date", "parsed_date", "ISO 8601 date or date-time"},
	{"date-text", "original_date_text", "Date as written in the source text"},
	{"location", "location", "Location"},
	{"emotion", "emotional_context", "Emotional context as a JSON string"},
}

func addPayloadFlags(cmd *cobra.Command) {
	for _, f := range payloadFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringP("participants", "p", "", "Comma-separated participants")
	cmd.Flags().Float64("importance", 0, "Importance score in [0,1]")
	cmd.Flags().Float64("confidence", 0, "Extraction confidence in [0,1]")
	cmd.Flags().String("json", "", "JSON object payload, or - for stdin")
}

// payloadFromFlags builds an event payload from --json and any explicitly set
// field flags. Flags override keys from --json.
func payloadFromFlags(cmd *cobra.Command) (map[string]any, error) {
	payload := map[string]any{}

	if src, _ := cmd.Flags().GetString("json"); src != "" {
		var data []byte
		if src == "-" {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			data = b
		} else {
			data = []byte(src)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	for _, f := range payloadFlags {
		if cmd.Flags().Changed(f.flag) {
			v, _ := cmd.Flags().GetString(f.flag)
			payload[f.field] = v
		}
	}
	if cmd.Flags().Changed("participants") {
		raw, _ := cmd.Flags().GetString("participants")
		payload["participants"] = splitList(raw)
	}
	for flag, field := range map[string]string{"importance": "importance_score", "confidence": "confidence"} {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetFloat64(flag)
			payload[field] = v
		}
	}
	return payload, nil
}

func splitList(raw string) []any {
	out := []any{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readPipedStdin returns stdin when it is not a terminal.
func readPipedStdin() string {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}
	return string(b)
}
