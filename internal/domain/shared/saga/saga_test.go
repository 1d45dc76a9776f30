package saga

import (
	"context"
	"errors"
	"testing"
)

func recording(trace *[]string, name string, fail error) Step {
	return Funcs{
		ExecuteFunc: func(context.Context) error {
			*trace = append(*trace, "do "+name)
			return fail
		},
		CompensateFunc: func(context.Context) error {
			*trace = append(*trace, "undo "+name)
			return nil
		},
	}
}

func TestRunCompensatesInReverse(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	err := Run(context.Background(),
		recording(&trace, "june", nil),
		recording(&trace, "july", nil),
		recording(&trace, "august", boom),
		recording(&trace, "september", nil),
	)
	if !errors.Is(err, boom) {
		t.Fatalf("Run: got %v, want boom", err)
	}
	want := []string{"do june", "do july", "do august", "undo july", "undo june"}
	if len(trace) != len(want) {
		t.Fatalf("trace: got %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d]: got %s, want %s", i, trace[i], want[i])
		}
	}
}

func TestRunJoinsCompensationFailures(t *testing.T) {
	boom := errors.New("boom")
	stuck := errors.New("undo failed")
	err := Run(context.Background(),
		Funcs{
			ExecuteFunc:    func(context.Context) error { return nil },
			CompensateFunc: func(context.Context) error { return stuck },
		},
		Funcs{ExecuteFunc: func(context.Context) error { return boom }},
	)
	if !errors.Is(err, boom) || !errors.Is(err, stuck) {
		t.Errorf("Run: got %v, want both errors", err)
	}
}

func TestRunCompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	undone := false
	err := Run(ctx,
		Funcs{
			ExecuteFunc: func(context.Context) error { return nil },
			CompensateFunc: func(ctx context.Context) error {
				undone = ctx.Err() == nil
				return nil
			},
		},
		Funcs{ExecuteFunc: func(context.Context) error {
			cancel()
			return context.Canceled
		}},
	)
	if !errors.Is(err, context.Canceled) || !undone {
		t.Errorf("Run: got %v undone=%v, want Canceled and a live compensation context", err, undone)
	}
}
