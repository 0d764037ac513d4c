package archive

import "fmt"

// Mode is the configured policy for a naming collision with an already
// archived file.
type Mode string

const (
	// ModeIgnore keeps the existing file and skips the new message.
	ModeIgnore Mode = "ignore"
	// ModeOverwrite trashes the existing file and writes the new one.
	ModeOverwrite Mode = "overwrite"
)

// ParseMode validates a configured duplicate mode value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeIgnore, ModeOverwrite:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown duplicate mode %q (want ignore or overwrite)", s)
}

// Action is the decision for one candidate message.
type Action int

const (
	ActionSave Action = iota
	ActionSkip
	ActionReplace
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionSkip:
		return "skip"
	case ActionReplace:
		return "replace"
	}
	return "unknown"
}

// Resolve decides what to do with a candidate given whether a file of
// the same name already exists at the target path. It is a pure
// decision; trashing and writing are the caller's job.
func Resolve(exists bool, mode Mode) (Action, error) {
	if !exists {
		return ActionSave, nil
	}
	switch mode {
	case ModeIgnore:
		return ActionSkip, nil
	case ModeOverwrite:
		return ActionReplace, nil
	}
	return ActionSkip, fmt.Errorf("unknown duplicate mode %q", mode)
}
