package history_test

import (
	"context"
	"errors"
	"testing"

	"ramanid/internal/history"
)

// counter is a toy document: commands add to its value.
type counter struct {
	value int
}

type addCommand struct {
	doc   *counter
	delta int
	fail  bool
}

func (c *addCommand) Execute(context.Context) error {
	if c.fail {
		return errors.New("boom")
	}
	c.doc.value += c.delta
	return nil
}

func (c *addCommand) Undo() error {
	c.doc.value -= c.delta
	return nil
}

func (c *addCommand) Name() string { return "add" }

func TestUndoRedoRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := &counter{}
	h := history.New()

	for _, d := range []int{1, 10, 100} {
		if err := h.Execute(ctx, &addCommand{doc: doc, delta: d}); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}
	if doc.value != 111 || h.State() != history.AtTip {
		t.Fatalf("value=%d state=%v", doc.value, h.State())
	}

	for i := 0; i < 3; i++ {
		if err := h.Undo(); err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
	}
	if doc.value != 0 || h.Cursor() != -1 || h.State() != history.BehindTip {
		t.Fatalf("after undo value=%d cursor=%d state=%v", doc.value, h.Cursor(), h.State())
	}

	for i := 0; i < 3; i++ {
		if err := h.Redo(ctx); err != nil {
			t.Fatalf("Redo failed: %v", err)
		}
	}
	if doc.value != 111 || h.Cursor() != 2 || h.Applied() != 3 {
		t.Fatalf("after redo value=%d cursor=%d", doc.value, h.Cursor())
	}
}

func TestExecuteTruncatesRedoBranch(t *testing.T) {
	ctx := context.Background()
	doc := &counter{}
	h := history.New()

	_ = h.Execute(ctx, &addCommand{doc: doc, delta: 1})
	_ = h.Execute(ctx, &addCommand{doc: doc, delta: 2})
	_ = h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo to be available")
	}
	if err := h.Execute(ctx, &addCommand{doc: doc, delta: 5}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if h.Len() != 2 || h.CanRedo() {
		t.Fatalf("len=%d canRedo=%v", h.Len(), h.CanRedo())
	}
	if doc.value != 6 {
		t.Fatalf("value=%d want 6", doc.value)
	}
}

func TestBoundariesAreNoOps(t *testing.T) {
	ctx := context.Background()
	h := history.New()
	if h.State() != history.Empty {
		t.Fatalf("state=%v want empty", h.State())
	}
	if err := h.Undo(); err != nil {
		t.Fatalf("Undo on empty history: %v", err)
	}
	if err := h.Redo(ctx); err != nil {
		t.Fatalf("Redo on empty history: %v", err)
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("empty history should not undo or redo")
	}
	if h.Cursor() != -1 || h.Applied() != 0 {
		t.Fatalf("cursor=%d applied=%d on empty history", h.Cursor(), h.Applied())
	}
}

func TestCursorStaysInRange(t *testing.T) {
	ctx := context.Background()
	doc := &counter{}
	h := history.New()

	_ = h.Execute(ctx, &addCommand{doc: doc, delta: 1})
	_ = h.Execute(ctx, &addCommand{doc: doc, delta: 2})
	if h.Cursor() != 1 {
		t.Fatalf("cursor=%d want 1 at tip", h.Cursor())
	}
	_ = h.Redo(ctx)
	if h.Cursor() != 1 {
		t.Fatalf("cursor=%d want 1 after redo at tip", h.Cursor())
	}
	for i := 0; i < 4; i++ {
		_ = h.Undo()
	}
	if h.Cursor() != -1 || doc.value != 0 {
		t.Fatalf("cursor=%d value=%d after undoing past the start", h.Cursor(), doc.value)
	}
	_ = h.Redo(ctx)
	if h.Cursor() != 0 || doc.value != 1 {
		t.Fatalf("cursor=%d value=%d after one redo", h.Cursor(), doc.value)
	}
}

func TestFailedCommandIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	doc := &counter{}
	h := history.New()

	_ = h.Execute(ctx, &addCommand{doc: doc, delta: 1})
	err := h.Execute(ctx, &addCommand{doc: doc, delta: 2, fail: true})
	if err == nil {
		t.Fatal("expected failure")
	}
	if h.Len() != 1 || h.Cursor() != 0 || doc.value != 1 {
		t.Fatalf("len=%d cursor=%d value=%d", h.Len(), h.Cursor(), doc.value)
	}
	if names := h.Names(); len(names) != 1 || names[0] != "add" {
		t.Fatalf("names=%v", names)
	}
}
