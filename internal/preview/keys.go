package preview

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// Action is something a key press asks the preview to do.
type Action int

const (
	ActionNone Action = iota
	ActionCurrentUp
	ActionCurrentDown
	ActionTargetUp
	ActionTargetDown
	ActionNextMetric
	ActionNextStyle
	ActionPaste
	ActionExport
	ActionCopy
	ActionRetry
	ActionDismiss
	ActionQuit
)

var actionNames = map[Action]string{
	ActionCurrentUp:   "current up",
	ActionCurrentDown: "current down",
	ActionTargetUp:    "target up",
	ActionTargetDown:  "target down",
	ActionNextMetric:  "next metric",
	ActionNextStyle:   "next style",
	ActionPaste:       "paste",
	ActionExport:      "export",
	ActionCopy:        "copy",
	ActionRetry:       "retry",
	ActionDismiss:     "dismiss",
	ActionQuit:        "quit",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "none"
}

var codeActions = map[key.Code]Action{
	key.CodeUpArrow:   ActionCurrentUp,
	key.CodeDownArrow: ActionCurrentDown,
	key.CodePageUp:    ActionTargetUp,
	key.CodePageDown:  ActionTargetDown,
	key.CodeEscape:    ActionQuit,
}

var runeActions = map[rune]Action{
	'm': ActionNextMetric,
	's': ActionNextStyle,
	'v': ActionPaste,
	'e': ActionExport,
	'c': ActionCopy,
	'r': ActionRetry,
	'x': ActionDismiss,
	'q': ActionQuit,
}

// actionFor maps a key event to an action. Only presses count, and runes are
// matched case-insensitively.
func actionFor(e key.Event) Action {
	if e.Direction == key.DirRelease {
		return ActionNone
	}
	if a, ok := codeActions[e.Code]; ok {
		return a
	}
	if e.Modifiers&(key.ModControl|key.ModMeta|key.ModAlt) != 0 {
		return ActionNone
	}
	return runeActions[unicode.ToLower(e.Rune)]
}

// helpText is shown in the status bar when there is nothing else to say.
const helpText = "Up/Down current  PgUp/PgDn target  m metric  s style  v paste  e save  c copy  q quit"
