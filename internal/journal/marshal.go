package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/modloader/internal/mod"
)

// outcomeFromError classifies err for storage. A nil err is StatusOK.
func outcomeFromError(err error) Outcome {
	if err == nil {
		return Outcome{Status: StatusOK}
	}
	out := Outcome{Status: StatusFailed, Message: err.Error()}
	var me *mod.Error
	if errors.As(err, &me) {
		out.Code = string(me.Code)
		out.Details = errorDetails(me)
	}
	return out
}

func errorDetails(me *mod.Error) map[string]any {
	details := map[string]any{}
	if me.Reason != "" {
		details["reason"] = string(me.Reason)
	}
	if len(me.Conflicts) > 0 {
		conflicts := make([]map[string]any, len(me.Conflicts))
		for i, c := range me.Conflicts {
			conflicts[i] = map[string]any{"mod_name": c.ModName, "path": c.Path}
		}
		details["conflicts"] = conflicts
	}
	if me.Mismatch != nil {
		details["candidate"] = me.Mismatch.Candidate
		details["existing"] = me.Mismatch.Existing
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// marshalDetails converts details to JSON TEXT for storage.
// Map keys are sorted by encoding/json, so output is stable.
func marshalDetails(details map[string]any) (string, error) {
	if len(details) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(details); err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDetails parses JSON TEXT back into a details map.
func unmarshalDetails(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(data), &details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return details, nil
}
