// Package history records reversible commands and walks them backwards and
// forwards.
package history

import (
	"context"
	"fmt"
)

// Command is a reversible edit. Implementations capture whatever they need
// to undo themselves before Execute is first called.
type Command interface {
	Execute(ctx context.Context) error
	Undo() error
	Name() string
}

// State summarizes the cursor position.
type State int

const (
	// Empty means no commands have been recorded.
	Empty State = iota
	// AtTip means every recorded command is applied.
	AtTip
	// BehindTip means at least one command can be redone.
	BehindTip
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case AtTip:
		return "at_tip"
	case BehindTip:
		return "behind_tip"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// History is a linear undo/redo log. Commands before the cursor are applied;
// commands after it are the redo branch. It is not safe for concurrent use.
type History struct {
	commands []Command
	cursor   int
}

// New returns an empty history.
func New() *History {
	return &History{}
}

// Execute discards the redo branch, runs cmd and records it on success.
// A failed command is not recorded and the redo branch stays discarded.
func (h *History) Execute(ctx context.Context, cmd Command) error {
	h.commands = h.commands[:h.cursor]
	if err := cmd.Execute(ctx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	h.commands = append(h.commands, cmd)
	h.cursor++
	return nil
}

// Undo reverts the command before the cursor. It is a no-op when nothing
// has been applied.
func (h *History) Undo() error {
	if h.cursor == 0 {
		return nil
	}
	cmd := h.commands[h.cursor-1]
	if err := cmd.Undo(); err != nil {
		return fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.cursor--
	return nil
}

// Redo re-executes the command after the cursor. It is a no-op at the tip.
func (h *History) Redo(ctx context.Context) error {
	if h.cursor == len(h.commands) {
		return nil
	}
	cmd := h.commands[h.cursor]
	if err := cmd.Execute(ctx); err != nil {
		return fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.cursor++
	return nil
}

// Cursor returns the index of the last applied command, or -1 when nothing
// is applied. It always lies in [-1, Len()-1].
func (h *History) Cursor() int { return h.cursor - 1 }

// Applied returns the number of applied commands.
func (h *History) Applied() int { return h.cursor }

// Len returns the number of recorded commands, including the redo branch.
func (h *History) Len() int { return len(h.commands) }

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.commands) }

// State reports where the cursor sits.
func (h *History) State() State {
	switch {
	case len(h.commands) == 0:
		return Empty
	case h.cursor == len(h.commands):
		return AtTip
	default:
		return BehindTip
	}
}

// Names lists recorded command names in order, for display.
func (h *History) Names() []string {
	out := make([]string, len(h.commands))
	for i, cmd := range h.commands {
		out[i] = cmd.Name()
	}
	return out
}
