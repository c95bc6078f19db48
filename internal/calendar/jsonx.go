package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrUnparsableModelOutput marks completions that contain no usable JSON
// object. There is nothing to repair against, so callers fail fast.
var ErrUnparsableModelOutput = errors.New("model output is not valid JSON")

// extractJSONObject pulls the first top-level {...} block out of a completion
// that may be wrapped in prose or markdown fences, repairing near-JSON when
// strict parsing fails.
func extractJSONObject(raw string) ([]byte, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found in completion", ErrUnparsableModelOutput)
	}
	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableModelOutput, err)
	}
	if !json.Valid([]byte(repaired)) {
		return nil, fmt.Errorf("%w: repair did not produce valid JSON", ErrUnparsableModelOutput)
	}
	return []byte(repaired), nil
}
