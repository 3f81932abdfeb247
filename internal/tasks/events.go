package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotpair/internal/shared"
)

// Input is a button gesture.
type Input int

const (
	Toggle Input = iota // Toggle flips between play and pause
	Tap                 // Tap is a short press
	Hold                // Hold is a press kept down past the debounce interval
)

func (i Input) String() string {
	switch i {
	case Toggle:
		return "toggle"
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	default:
		return ""
	}
}

// ParseInput maps a line of text to an [Input].
//
// An empty line toggles, like a bare button press.
func ParseInput(s string) (Input, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "t", "toggle":
		return Toggle, nil
	case "p", "play", "tap":
		return Tap, nil
	case "s", "pause", "hold":
		return Hold, nil
	default:
		return 0, fmt.Errorf("%w: unknown input %q", shared.ErrInvalidInput, s)
	}
}

// Action is what the controller did with an input.
type Action int

const (
	Played Action = iota
	Paused
	Skipped
	Failed
)

func (a Action) String() string {
	switch a {
	case Played:
		return "played"
	case Paused:
		return "paused"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Event reports the outcome of one input.
type Event struct {
	Input   Input
	Action  Action
	Message string // Human-readable message for display
	Err     error
}

func playedEvent(in Input, target string) Event {
	return Event{
		Input:   in,
		Action:  Played,
		Message: fmt.Sprintf("Playing %s", target),
	}
}

func pausedEvent(in Input) Event {
	return Event{
		Input:   in,
		Action:  Paused,
		Message: "Paused",
	}
}

func skippedEvent(in Input) Event {
	return Event{
		Input:   in,
		Action:  Skipped,
		Message: "Ignored press inside debounce interval",
	}
}

func failedEvent(in Input, err error) Event {
	return Event{
		Input:   in,
		Action:  Failed,
		Message: fmt.Sprintf("Error: %v", err),
		Err:     err,
	}
}
