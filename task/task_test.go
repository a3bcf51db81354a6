package task

import (
	"context"
	"errors"
	"testing"
)

func TestTaskLazy(t *testing.T) {
	calls := 0
	tk := New(func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	if calls != 0 {
		t.Fatalf("task executed before being driven: %d calls", calls)
	}

	v, err := tk.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestTaskMemoized(t *testing.T) {
	calls := 0
	tk := New(func(ctx context.Context) (string, error) {
		calls++
		return "once", nil
	})

	for i := 0; i < 3; i++ {
		v, err := tk.Run(context.Background())
		if err != nil || v != "once" {
			t.Fatalf("run %d: got (%q, %v)", i, v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 execution, got %d", calls)
	}
}

func TestTaskDone(t *testing.T) {
	invoked := 0
	tk := New(func(ctx context.Context) (int, error) {
		return 7, nil
	})

	tk.Done(context.Background(), func(v int, err error) {
		invoked++
		if v != 7 || err != nil {
			t.Errorf("callback got (%d, %v)", v, err)
		}
	})

	if invoked != 1 {
		t.Errorf("callback invoked %d times, want 1", invoked)
	}
}

func TestThen(t *testing.T) {
	aCalls := 0
	a := New(func(ctx context.Context) (int, error) {
		aCalls++
		return 10, nil
	})
	b := Then(a, func(ctx context.Context, v int) (int, error) {
		return v * 2, nil
	})

	if aCalls != 0 {
		t.Fatalf("upstream task executed before the chain was driven")
	}

	v, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Then chain failed: %v", err)
	}
	if v != 20 {
		t.Errorf("expected 20, got %d", v)
	}
}

func TestThenShortCircuitsOnError(t *testing.T) {
	boom := errors.New("boom")
	a := Reject[int](boom)
	downstream := 0
	b := Then(a, func(ctx context.Context, v int) (int, error) {
		downstream++
		return v, nil
	})

	_, err := b.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if downstream != 0 {
		t.Errorf("downstream ran despite upstream failure")
	}
}

func TestResolveAndAll(t *testing.T) {
	vs, err := All(context.Background(), Resolve(1), Resolve(2), Resolve(3))
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(vs) != 3 || vs[0] != 1 || vs[2] != 3 {
		t.Errorf("unexpected values: %v", vs)
	}
}
