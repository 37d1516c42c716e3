package progress

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestToProgress(t *testing.T) {
	if got := ToProgress(0, 0); got != 0 {
		t.Errorf("ToProgress(0, 0) = %v, want 0", got)
	}
	if got := ToProgress(3, 4); got != 75 {
		t.Errorf("ToProgress(3, 4) = %v, want 75", got)
	}
	if got := ToProgress(0, 10); got != 0 {
		t.Errorf("ToProgress(0, 10) = %v, want 0", got)
	}
}

func TestFromProgressBounds(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	if got := FromProgress(0, text); got != 0 {
		t.Errorf("FromProgress(0) = %d, want 0", got)
	}
	if got := FromProgress(100, text); got != 4 {
		t.Errorf("FromProgress(100) = %d, want 4", got)
	}
	if got := FromProgress(250, text); got != 4 {
		t.Errorf("FromProgress(250) = %d, want 4", got)
	}
	if got := FromProgress(-10, text); got != 0 {
		t.Errorf("FromProgress(-10) = %d, want 0", got)
	}
	if got := FromProgress(math.NaN(), text); got != 0 {
		t.Errorf("FromProgress(NaN) = %d, want 0", got)
	}
	if got := FromProgress(50, "   "); got != 0 {
		t.Errorf("FromProgress on blank content = %d, want 0", got)
	}
}

func TestFromProgressRounds(t *testing.T) {
	text := "a b c d"
	if got := FromProgress(37.5, text); got != 2 {
		t.Errorf("FromProgress(37.5) = %d, want 2", got)
	}
	if got := FromProgress(30, text); got != 1 {
		t.Errorf("FromProgress(30) = %d, want 1", got)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	text := "one  two\tthree\nfour five six seven"
	n := 7
	for i := 0; i < n; i++ {
		if got := FromProgress(ToProgress(i, n), text); got != i {
			t.Errorf("round trip of %d = %d", i, got)
		}
	}
}

type memStore struct {
	state   *ReadingState
	saves   int
	saveErr error
}

func (s *memStore) LoadReadingState(context.Context) (*ReadingState, error) {
	if s.state == nil {
		return nil, nil
	}
	st := *s.state
	return &st, nil
}

func (s *memStore) SaveReadingState(_ context.Context, st ReadingState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.state = &st
	return nil
}

func (s *memStore) ClearReadingState(context.Context) error {
	s.state = nil
	return nil
}

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestBridgeRecord(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := NewBridge(store, fixedClock(time.Unix(1000, 0)))

	if err := b.Record(ctx, 1, 4); err != nil {
		t.Fatalf("Record before Begin: %v", err)
	}
	if store.saves != 0 {
		t.Error("inactive bridge should not save")
	}

	b.Begin("a b c d")
	if err := b.Record(ctx, 0, 4); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := b.Record(ctx, 0, 4); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if err := b.Record(ctx, 2, 4); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if store.state.Progress != 50 {
		t.Errorf("progress = %v, want 50", store.state.Progress)
	}
	if store.state.Content != "a b c d" {
		t.Errorf("content = %q", store.state.Content)
	}
	if !store.state.LastReadAt.After(store.state.CreatedAt) {
		t.Errorf("lastReadAt %v should be after createdAt %v", store.state.LastReadAt, store.state.CreatedAt)
	}
}

func TestBridgeRecordError(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	b := NewBridge(store, nil)
	b.Begin("x y")
	err := b.Record(context.Background(), 1, 2)
	if err == nil || !errors.Is(err, store.saveErr) {
		t.Errorf("err = %v, want wrapped disk full", err)
	}
}

func TestBridgeResume(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := NewBridge(store, nil)

	_, _, ok, err := b.Resume(ctx)
	if err != nil || ok {
		t.Fatalf("Resume on empty store: ok = %v err = %v", ok, err)
	}

	store.state = &ReadingState{Content: "one two three four", Progress: 75}
	content, index, ok, err := b.Resume(ctx)
	if err != nil || !ok {
		t.Fatalf("Resume: ok = %v err = %v", ok, err)
	}
	if content != "one two three four" || index != 3 {
		t.Errorf("Resume = %q/%d, want content/3", content, index)
	}
	if !b.Active() {
		t.Error("bridge should be active after resume")
	}

	// Same position as persisted: nothing to write.
	if _, ok := b.Mark(3, 4); ok {
		t.Error("Mark at persisted progress should report no change")
	}
}

func TestBridgeForget(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := NewBridge(store, nil)
	b.Begin("a b")
	if err := b.Record(ctx, 1, 2); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := b.Forget(ctx); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if store.state != nil || b.Active() {
		t.Error("state should be gone after Forget")
	}
}

func TestBridgeAdoptBlank(t *testing.T) {
	b := NewBridge(&memStore{}, nil)
	if _, _, ok := b.Adopt(ReadingState{}); ok || b.Active() {
		t.Error("blank state should not be adopted")
	}
	content, index, ok := b.Adopt(ReadingState{Content: "a b c d", Progress: 50})
	if !ok || content != "a b c d" || index != 2 {
		t.Errorf("Adopt = %q/%d/%v, want content/2/true", content, index, ok)
	}
}

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue(8, nil)

	var got []int
	for i := 0; i < 5; i++ {
		if !q.Enqueue(func(context.Context) error {
			got = append(got, i)
			return nil
		}) {
			t.Fatalf("job %d dropped", i)
		}
	}
	q.Enqueue(func(context.Context) error { return errors.New("logged, not fatal") })
	q.Close()

	if len(got) != 5 {
		t.Fatalf("ran %d jobs, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Enqueue(func(context.Context) error { return nil }) {
		t.Error("Enqueue after Close should report false")
	}
	// Closing twice is fine.
	q.Close()
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(1, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	q.Enqueue(func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	if !q.Enqueue(func(context.Context) error { return nil }) {
		t.Fatal("second job should fit in the buffer")
	}
	if q.Enqueue(func(context.Context) error { return nil }) {
		t.Error("third job should be dropped")
	}
	close(release)
	q.Close()
}
