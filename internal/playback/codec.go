// Package playback classifies raw control actions into playback events.
package playback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/moveefy/server/internal/domain"
)

var ErrMalformedAction = errors.New("malformed action")

const (
	actionPlay  = "play"
	actionPause = "pause"
)

// Decode accepts a JSON string ("play", "pause", "42.5") or a JSON number.
func Decode(raw json.RawMessage) (domain.PlaybackEvent, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.PlaybackEvent{}, fmt.Errorf("%w: empty action", ErrMalformedAction)
	}

	if raw[0] == '"' {
		var action string
		if err := json.Unmarshal(raw, &action); err != nil {
			return domain.PlaybackEvent{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
		}

		return Parse(action)
	}

	var timestamp float64
	if err := json.Unmarshal(raw, &timestamp); err != nil {
		return domain.PlaybackEvent{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}

	return seekTo(timestamp)
}

// Parse classifies the textual form of an action.
func Parse(action string) (domain.PlaybackEvent, error) {
	action = strings.TrimSpace(action)
	switch action {
	case actionPlay:
		return domain.Play(), nil
	case actionPause:
		return domain.Pause(), nil
	}

	timestamp, err := strconv.ParseFloat(action, 64)
	if err != nil {
		return domain.PlaybackEvent{}, fmt.Errorf("%w: %q is neither play, pause nor a timestamp", ErrMalformedAction, action)
	}

	return seekTo(timestamp)
}

func seekTo(timestamp float64) (domain.PlaybackEvent, error) {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return domain.PlaybackEvent{}, fmt.Errorf("%w: timestamp is not finite", ErrMalformedAction)
	}

	if timestamp < 0 {
		return domain.PlaybackEvent{}, fmt.Errorf("%w: negative timestamp %v", ErrMalformedAction, timestamp)
	}

	// -0 parses as non-negative
	if timestamp == 0 {
		timestamp = 0
	}

	return domain.SeekTo(timestamp), nil
}
