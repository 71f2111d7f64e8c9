package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedGoals = errors.New("malformed goal blob")

// DecodeGoals always returns a usable map. On malformed input the map is
// empty and the error wraps ErrMalformedGoals.
func DecodeGoals(blob []byte) (GoalMap, error) {
	goals := GoalMap{}
	if len(bytes.TrimSpace(blob)) == 0 {
		return goals, nil
	}

	var decoded GoalMap
	if err := json.Unmarshal(blob, &decoded); err != nil {
		return goals, fmt.Errorf("%w: %s", ErrMalformedGoals, err)
	}
	for k, v := range decoded {
		goals[k] = v
	}
	return goals, nil
}

func EncodeGoals(goals GoalMap) ([]byte, error) {
	if goals == nil {
		goals = GoalMap{}
	}
	return json.Marshal(goals)
}
