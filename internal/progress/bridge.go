package progress

import (
	"context"
	"fmt"
	"time"
)

// ReadingState is the persisted record of the text being read.
type ReadingState struct {
	Content    string
	Progress   float64
	CreatedAt  time.Time
	LastReadAt time.Time
}

// Store persists the single current ReadingState.
type Store interface {
	LoadReadingState(ctx context.Context) (*ReadingState, error)
	SaveReadingState(ctx context.Context, st ReadingState) error
	ClearReadingState(ctx context.Context) error
}

// Bridge hands playback positions to a Store and reconstructs them on resume.
// Only Save may be called concurrently with other methods.
type Bridge struct {
	store Store
	now   func() time.Time

	state  ReadingState
	active bool
	saved  bool
}

// NewBridge returns a Bridge over store. now defaults to time.Now.
func NewBridge(store Store, now func() time.Time) *Bridge {
	if now == nil {
		now = time.Now
	}
	return &Bridge{store: store, now: now}
}

// Begin starts tracking a newly submitted text.
func (b *Bridge) Begin(content string) {
	t := b.now()
	b.state = ReadingState{Content: content, CreatedAt: t, LastReadAt: t}
	b.active = true
	b.saved = false
}

// Active reports whether a text is being tracked.
func (b *Bridge) Active() bool { return b.active }

// State returns the tracked reading state.
func (b *Bridge) State() ReadingState { return b.state }

// Mark moves the tracked progress to index of length words and returns the
// state to persist. ok is false when nothing changed.
func (b *Bridge) Mark(index, length int) (st ReadingState, ok bool) {
	if !b.active {
		return ReadingState{}, false
	}
	p := ToProgress(index, length)
	if b.saved && p == b.state.Progress {
		return ReadingState{}, false
	}
	b.state.Progress = p
	b.state.LastReadAt = b.now()
	b.saved = true
	return b.state, true
}

// Save writes st to the store. It may run on another goroutine.
func (b *Bridge) Save(ctx context.Context, st ReadingState) error {
	if err := b.store.SaveReadingState(ctx, st); err != nil {
		return fmt.Errorf("save reading state: %w", err)
	}
	return nil
}

// Record is Mark followed by Save.
func (b *Bridge) Record(ctx context.Context, index, length int) error {
	st, ok := b.Mark(index, length)
	if !ok {
		return nil
	}
	return b.Save(ctx, st)
}

// Resume loads the persisted state. ok is false when there is nothing to
// resume. The returned index is only valid once content has been segmented.
func (b *Bridge) Resume(ctx context.Context) (content string, index int, ok bool, err error) {
	st, err := b.store.LoadReadingState(ctx)
	if err != nil {
		return "", 0, false, fmt.Errorf("load reading state: %w", err)
	}
	if st == nil {
		return "", 0, false, nil
	}
	content, index, ok = b.Adopt(*st)
	return content, index, ok, nil
}

// Adopt tracks an already loaded state as if it had been resumed.
func (b *Bridge) Adopt(st ReadingState) (content string, index int, ok bool) {
	if st.Content == "" {
		return "", 0, false
	}
	b.state = st
	b.active = true
	b.saved = true
	return st.Content, FromProgress(st.Progress, st.Content), true
}

// Forget stops tracking and removes the persisted state.
func (b *Bridge) Forget(ctx context.Context) error {
	b.Reset()
	return b.Clear(ctx)
}

// Reset stops tracking without touching the store.
func (b *Bridge) Reset() {
	b.active = false
	b.saved = false
	b.state = ReadingState{}
}

// Clear removes the persisted state. Like Save, it may run on another goroutine.
func (b *Bridge) Clear(ctx context.Context) error {
	if err := b.store.ClearReadingState(ctx); err != nil {
		return fmt.Errorf("clear reading state: %w", err)
	}
	return nil
}
