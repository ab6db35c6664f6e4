package solver

import "context"

// Status reports the outcome of a solve.
type Status int

const (
	// StatusOptimal means an optimal assignment was found and proved.
	StatusOptimal Status = iota
	// StatusInfeasible means the model has no feasible point.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded above.
	StatusUnbounded
	// StatusError means the solve failed or exhausted its node or
	// wall-clock budget before proving a solution.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Result carries the solver outcome. Values is indexed by Var and only
// meaningful when Status is StatusOptimal.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Solver solves a Model within the lifetime of the context. A non-nil error
// is returned only for failures outside the model itself (the model's own
// infeasibility or unboundedness is reported through Status).
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Result, error)
}
