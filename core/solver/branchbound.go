package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Default budgets, mirroring the bounded node-count/wall-clock discipline an
// external MILP process would be run under.
const (
	DefaultMaxNodes = 5000
	defaultLPTol    = 1e-7
	defaultActTol   = 1e-6
)

// ErrBudgetExhausted is returned when the node budget or the context
// deadline runs out before a solution is proved.
var ErrBudgetExhausted = errors.New("solver: node or time budget exhausted")

// BranchBound solves Models by LP relaxation (a bounded-variable primal
// simplex) plus branch and bound over exclusive groups. The relaxation
// drops the exclusivity requirement; branching zeroes one side of a
// violated group per child, so every leaf satisfies all groups
// structurally.
type BranchBound struct {
	// MaxNodes bounds the number of LP relaxations solved.
	MaxNodes int
	// LPTol is the simplex reduced-cost optimality tolerance.
	LPTol float64
	// ActTol is the activity threshold above which a variable set counts
	// as active in an exclusive group.
	ActTol float64
}

// NewBranchBound returns a solver with default budgets and tolerances.
func NewBranchBound() *BranchBound {
	return &BranchBound{MaxNodes: DefaultMaxNodes, LPTol: defaultLPTol, ActTol: defaultActTol}
}

type node struct {
	lo, hi []float64
}

// Solve implements the Solver interface. Exhausting the node budget, the
// iteration budget or the context deadline before an optimum is proved
// yields StatusError together with ErrBudgetExhausted; the deadline is
// honoured mid-relaxation, not only between nodes.
func (s *BranchBound) Solve(ctx context.Context, m *Model) (*Result, error) {
	n := m.NumVars()
	if n == 0 {
		return &Result{Status: StatusOptimal, Objective: m.objConst}, nil
	}

	stack := []node{{lo: cloneFloats(m.lo), hi: cloneFloats(m.hi)}}
	var bestVals []float64
	bestObj := math.Inf(-1)
	solved := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return &Result{Status: StatusError}, fmt.Errorf("%w: %v", ErrBudgetExhausted, err)
		}
		if solved >= s.maxNodes() {
			return &Result{Status: StatusError}, ErrBudgetExhausted
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, vals, err := s.relax(ctx, m, nd.lo, nd.hi)
		solved++
		switch {
		case errors.Is(err, errLPInfeasible):
			continue
		case errors.Is(err, errLPUnbounded):
			// A subproblem's feasible region is contained in the
			// root's, so unboundedness is a property of the model.
			return &Result{Status: StatusUnbounded}, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, errLPIterations):
			return &Result{Status: StatusError}, fmt.Errorf("%w: %v", ErrBudgetExhausted, err)
		case err != nil:
			return &Result{Status: StatusError}, fmt.Errorf("lp relaxation: %w", err)
		}

		if obj <= bestObj+1e-9 {
			continue
		}

		g, actA, actB := s.mostViolated(m, vals)
		if g < 0 {
			bestObj = obj
			bestVals = vals
			continue
		}

		childA := node{lo: cloneFloats(nd.lo), hi: cloneFloats(nd.hi)}
		zeroSet(childA, m.groups[g].B)
		childB := node{lo: cloneFloats(nd.lo), hi: cloneFloats(nd.hi)}
		zeroSet(childB, m.groups[g].A)
		// Explore first the child that keeps the more active set, it is
		// the more promising incumbent. Pushed last so it pops first.
		if actA >= actB {
			stack = append(stack, childB, childA)
		} else {
			stack = append(stack, childA, childB)
		}
	}

	if bestVals == nil {
		return &Result{Status: StatusInfeasible}, nil
	}
	clampToBounds(bestVals, m.lo, m.hi)
	return &Result{
		Status:    StatusOptimal,
		Objective: bestObj + m.objConst,
		Values:    bestVals,
	}, nil
}

func (s *BranchBound) maxNodes() int {
	if s.MaxNodes > 0 {
		return s.MaxNodes
	}
	return DefaultMaxNodes
}

// relax solves the LP relaxation under the node's variable bounds and
// returns the maximised objective (without the constant offset) and the
// assignment. Bounds are handed to the simplex implicitly rather than as
// rows, so the basis stays at the size of the constraint system.
func (s *BranchBound) relax(ctx context.Context, m *Model, lo, hi []float64) (float64, []float64, error) {
	n := m.NumVars()
	nTot := n + countLessEq(m.cons)
	rows := len(m.cons)

	p := simplexProblem{
		rhs:     make([]float64, rows),
		obj:     make([]float64, nTot),
		lo:      make([]float64, nTot),
		hi:      make([]float64, nTot),
		slackOf: make([]int, rows),
		n:       n,
	}
	copy(p.obj, m.obj)
	copy(p.lo, lo)
	copy(p.hi, hi)
	for j := n; j < nTot; j++ {
		p.hi[j] = math.Inf(1)
	}
	if rows > 0 {
		p.a = mat.NewDense(rows, nTot, nil)
	}
	slack := n
	for i, con := range m.cons {
		for _, t := range con.terms {
			p.a.Set(i, int(t.Var), p.a.At(i, int(t.Var))+t.Coef)
		}
		p.rhs[i] = con.rhs
		p.slackOf[i] = -1
		if con.kind == lessEq {
			p.a.Set(i, slack, 1)
			p.slackOf[i] = slack
			slack++
		}
	}

	res, err := solveBoundedSimplex(ctx, p, s.lpTol())
	if err != nil {
		return 0, nil, err
	}
	return res.obj, res.vals, nil
}

func (s *BranchBound) lpTol() float64 {
	if s.LPTol > 0 {
		return s.LPTol
	}
	return defaultLPTol
}

func (s *BranchBound) actTol() float64 {
	if s.ActTol > 0 {
		return s.ActTol
	}
	return defaultActTol
}

// mostViolated returns the index of the exclusive group with the largest
// simultaneous activity on both sides, or -1 when the assignment satisfies
// every group. Ties break on the lowest index so repeated solves explore an
// identical tree.
func (s *BranchBound) mostViolated(m *Model, vals []float64) (int, float64, float64) {
	best := -1
	var bestScore, bestA, bestB float64
	for i, grp := range m.groups {
		actA := setActivity(vals, grp.A)
		actB := setActivity(vals, grp.B)
		if actA <= s.actTol() || actB <= s.actTol() {
			continue
		}
		score := math.Min(actA, actB)
		if score > bestScore {
			best, bestScore, bestA, bestB = i, score, actA, actB
		}
	}
	return best, bestA, bestB
}

func setActivity(vals []float64, set []Var) float64 {
	var act float64
	for _, v := range set {
		if a := math.Abs(vals[v]); a > act {
			act = a
		}
	}
	return act
}

func zeroSet(nd node, set []Var) {
	for _, v := range set {
		nd.lo[v] = 0
		nd.hi[v] = 0
	}
}

func countLessEq(cons []constraint) int {
	n := 0
	for _, c := range cons {
		if c.kind == lessEq {
			n++
		}
	}
	return n
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func clampToBounds(vals, lo, hi []float64) {
	for i := range vals {
		if finite(lo[i]) && vals[i] < lo[i] {
			vals[i] = lo[i]
		}
		if finite(hi[i]) && vals[i] > hi[i] {
			vals[i] = hi[i]
		}
	}
}
