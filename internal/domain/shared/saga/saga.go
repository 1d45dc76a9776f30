package saga

import (
	"context"
	"errors"
)

// Step is one forward action with the compensation that undoes it.
type Step interface {
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Funcs adapts a pair of functions to Step. A nil Compensate means nothing to undo.
type Funcs struct {
	ExecuteFunc    func(ctx context.Context) error
	CompensateFunc func(ctx context.Context) error
}

func (f Funcs) Execute(ctx context.Context) error {
	return f.ExecuteFunc(ctx)
}

func (f Funcs) Compensate(ctx context.Context) error {
	if f.CompensateFunc == nil {
		return nil
	}
	return f.CompensateFunc(ctx)
}

// Run executes steps in order. When a step fails, the steps already executed are
// compensated in reverse order and their failures are joined to the step error.
// Compensation ignores cancellation of ctx.
func Run(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		err := step.Execute(ctx)
		if err == nil {
			continue
		}
		undo := context.WithoutCancel(ctx)
		for j := i - 1; j >= 0; j-- {
			if cErr := steps[j].Compensate(undo); cErr != nil {
				err = errors.Join(err, cErr)
			}
		}
		return err
	}
	return nil
}
