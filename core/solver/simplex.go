package solver

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Relaxation outcomes the branch and bound loop dispatches on.
var (
	errLPInfeasible = errors.New("solver: relaxation infeasible")
	errLPUnbounded  = errors.New("solver: relaxation unbounded")
	errLPIterations = errors.New("solver: simplex iteration budget exhausted")
)

const (
	simplexMaxIter = 20000
	pivotTol       = 1e-9
	feasTol        = 1e-6
	ctxCheckEvery  = 64
	refreshEvery   = 128
	blandAfter     = 200
)

// simplexProblem is the computational form of one relaxation: slack
// variables absorb the inequality rows so every row is an equality, and
// variable bounds stay implicit instead of becoming rows of their own. That
// keeps the basis at the size of the constraint system, which is what makes
// day-long models with hundreds of bounded variables tractable.
type simplexProblem struct {
	a       *mat.Dense // rows x (n + slacks), nil when there are no rows
	rhs     []float64
	obj     []float64 // structural coefficients, zero for slacks
	lo, hi  []float64
	slackOf []int // per row: its slack column, or -1 for an equality
	n       int   // structural variable count
}

type simplexResult struct {
	vals []float64 // structural assignment
	obj  float64
}

type colStatus int8

const (
	atLower colStatus = iota
	atUpper
	atFree // unbounded both ways, resting at zero
	inBasis
)

// artificial is a phase-one column: sign times the row's unit vector.
type artificial struct {
	row  int
	sign float64
}

// simplexState runs the bounded-variable primal simplex. Phase one drives
// the artificial variables of the initially violated rows to zero, phase two
// maximises the real objective from the feasible basis phase one left. The
// basis inverse is kept explicitly and updated per pivot.
type simplexState struct {
	p   simplexProblem
	tol float64

	nTot int          // structural + slack columns
	cols [][]float64  // column-major copy of a
	art  []artificial // columns appended after nTot

	lo, hi []float64
	status []colStatus
	basis  []int
	xB     []float64
	binv   *mat.Dense

	bland bool
	degen int
}

// solveBoundedSimplex maximises p.obj subject to p's rows and bounds. It
// returns errLPInfeasible, errLPUnbounded or errLPIterations on the
// corresponding outcomes, and the context's error when the deadline expires
// mid-solve.
func solveBoundedSimplex(ctx context.Context, p simplexProblem, tol float64) (simplexResult, error) {
	for j := range p.obj {
		if p.lo[j] > p.hi[j] {
			return simplexResult{}, errLPInfeasible
		}
	}
	s := newSimplexState(p, tol)

	if len(s.art) > 0 {
		phase1 := make([]float64, s.totalCols())
		for k := range s.art {
			phase1[s.nTot+k] = -1
		}
		if err := s.run(ctx, phase1); err != nil {
			return simplexResult{}, err
		}
		s.refreshXB()
		if s.infeasibility() > feasTol {
			return simplexResult{}, errLPInfeasible
		}
		// Pin the artificials at zero for phase two.
		for k := range s.art {
			s.hi[s.nTot+k] = 0
		}
	}

	phase2 := make([]float64, s.totalCols())
	copy(phase2, p.obj)
	if err := s.run(ctx, phase2); err != nil {
		return simplexResult{}, err
	}
	if len(s.basis) > 0 {
		s.refreshXB()
	}

	x := make([]float64, s.nTot)
	for j := 0; j < s.nTot; j++ {
		if s.status[j] != inBasis {
			x[j] = s.restValue(j)
		}
	}
	for i, bj := range s.basis {
		if bj < s.nTot {
			x[bj] = s.xB[i]
		}
	}
	var obj float64
	for j := 0; j < p.n; j++ {
		obj += p.obj[j] * x[j]
	}
	return simplexResult{vals: x[:p.n], obj: obj}, nil
}

func newSimplexState(p simplexProblem, tol float64) *simplexState {
	nTot := len(p.obj)
	m := len(p.rhs)
	s := &simplexState{p: p, tol: tol, nTot: nTot}
	s.lo = append([]float64(nil), p.lo...)
	s.hi = append([]float64(nil), p.hi...)
	s.status = make([]colStatus, nTot)
	for j := 0; j < nTot; j++ {
		switch {
		case finite(s.lo[j]):
			s.status[j] = atLower
		case finite(s.hi[j]):
			s.status[j] = atUpper
		default:
			s.status[j] = atFree
		}
	}
	if m == 0 {
		return s
	}

	s.cols = make([][]float64, nTot)
	for j := 0; j < nTot; j++ {
		col := make([]float64, m)
		for i := 0; i < m; i++ {
			col[i] = p.a.At(i, j)
		}
		s.cols[j] = col
	}

	resid := make([]float64, m)
	copy(resid, p.rhs)
	for j := 0; j < nTot; j++ {
		if v := s.restValue(j); v != 0 {
			for i, aij := range s.cols[j] {
				resid[i] -= aij * v
			}
		}
	}

	// Slacks of already-satisfied inequality rows seed the basis; only the
	// remaining rows need an artificial.
	s.basis = make([]int, m)
	s.xB = make([]float64, m)
	s.binv = mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		if sc := p.slackOf[i]; sc >= 0 && resid[i] >= 0 {
			s.basis[i] = sc
			s.status[sc] = inBasis
			s.xB[i] = resid[i]
			s.binv.Set(i, i, 1)
			continue
		}
		sign := 1.0
		if resid[i] < 0 {
			sign = -1
		}
		s.art = append(s.art, artificial{row: i, sign: sign})
		col := nTot + len(s.art) - 1
		s.lo = append(s.lo, 0)
		s.hi = append(s.hi, math.Inf(1))
		s.status = append(s.status, inBasis)
		s.basis[i] = col
		s.xB[i] = sign * resid[i]
		s.binv.Set(i, i, sign)
	}
	return s
}

func (s *simplexState) totalCols() int { return s.nTot + len(s.art) }

// restValue is the value a nonbasic column rests at.
func (s *simplexState) restValue(j int) float64 {
	switch s.status[j] {
	case atLower:
		return s.lo[j]
	case atUpper:
		return s.hi[j]
	default:
		return 0
	}
}

// colDot computes the dot product of y with column j.
func (s *simplexState) colDot(y []float64, j int) float64 {
	if j < s.nTot {
		var sum float64
		for i, v := range s.cols[j] {
			if v != 0 {
				sum += y[i] * v
			}
		}
		return sum
	}
	a := s.art[j-s.nTot]
	return y[a.row] * a.sign
}

// applyBinv fills w with B^-1 A_j.
func (s *simplexState) applyBinv(j int, w []float64) {
	m := len(s.basis)
	if j >= s.nTot {
		a := s.art[j-s.nTot]
		for i := 0; i < m; i++ {
			w[i] = s.binv.At(i, a.row) * a.sign
		}
		return
	}
	col := s.cols[j]
	for i := 0; i < m; i++ {
		row := s.binv.RawRowView(i)
		var sum float64
		for k, v := range col {
			if v != 0 {
				sum += row[k] * v
			}
		}
		w[i] = sum
	}
}

// run iterates pivots for one phase until the cost vector admits no
// improving column. It returns nil at optimality.
func (s *simplexState) run(ctx context.Context, cost []float64) error {
	s.bland, s.degen = false, 0
	m := len(s.basis)
	if m == 0 {
		return s.runUnconstrained(cost)
	}
	y := make([]float64, m)
	w := make([]float64, m)
	for iter := 0; iter < simplexMaxIter; iter++ {
		if iter%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if iter > 0 && iter%refreshEvery == 0 {
			s.refreshXB()
		}

		// y = c_B B^-1, then reduced costs are c_j - y A_j.
		for k := range y {
			y[k] = 0
		}
		for i := 0; i < m; i++ {
			cb := cost[s.basis[i]]
			if cb == 0 {
				continue
			}
			row := s.binv.RawRowView(i)
			for k, v := range row {
				y[k] += cb * v
			}
		}

		enter, dir := s.price(cost, y)
		if enter < 0 {
			return nil
		}
		s.applyBinv(enter, w)

		// Ratio test: the entering variable moves until it hits its own
		// opposite bound or drives a basic variable to one of its bounds.
		theta := math.Inf(1)
		if finite(s.lo[enter]) && finite(s.hi[enter]) {
			theta = s.hi[enter] - s.lo[enter]
		}
		leave := -1
		leaveUpper := false
		for i := 0; i < m; i++ {
			delta := dir * w[i]
			bi := s.basis[i]
			var t float64
			var upper bool
			switch {
			case delta > pivotTol:
				if !finite(s.lo[bi]) {
					continue
				}
				t = (s.xB[i] - s.lo[bi]) / delta
			case delta < -pivotTol:
				if !finite(s.hi[bi]) {
					continue
				}
				t = (s.xB[i] - s.hi[bi]) / delta
				upper = true
			default:
				continue
			}
			if t < 0 {
				t = 0
			}
			if t < theta || (t == theta && leave >= 0 && bi < s.basis[leave]) {
				theta, leave, leaveUpper = t, i, upper
			}
		}
		if math.IsInf(theta, 1) {
			return errLPUnbounded
		}

		if theta <= pivotTol {
			s.degen++
			if s.degen > blandAfter {
				s.bland = true
			}
		} else {
			s.degen = 0
		}

		enterVal := s.restValue(enter) + dir*theta
		if theta > 0 {
			for i := 0; i < m; i++ {
				s.xB[i] -= dir * w[i] * theta
			}
		}
		if leave < 0 {
			// Bound flip, the basis is unchanged.
			if dir > 0 {
				s.status[enter] = atUpper
			} else {
				s.status[enter] = atLower
			}
			continue
		}

		left := s.basis[leave]
		if leaveUpper {
			s.status[left] = atUpper
		} else {
			s.status[left] = atLower
		}
		s.basis[leave] = enter
		s.status[enter] = inBasis
		s.xB[leave] = enterVal

		pivot := w[leave]
		prow := s.binv.RawRowView(leave)
		inv := 1 / pivot
		for k := range prow {
			prow[k] *= inv
		}
		for i := 0; i < m; i++ {
			if i == leave {
				continue
			}
			f := w[i]
			if f == 0 {
				continue
			}
			ri := s.binv.RawRowView(i)
			for k, v := range prow {
				ri[k] -= f * v
			}
		}
	}
	return errLPIterations
}

// runUnconstrained handles the rowless case: each variable independently
// moves to whichever bound its cost favours.
func (s *simplexState) runUnconstrained(cost []float64) error {
	for j := 0; j < s.nTot; j++ {
		switch {
		case cost[j] > s.tol:
			if !finite(s.hi[j]) {
				return errLPUnbounded
			}
			s.status[j] = atUpper
		case cost[j] < -s.tol:
			if !finite(s.lo[j]) {
				return errLPUnbounded
			}
			s.status[j] = atLower
		}
	}
	return nil
}

// price returns an improving nonbasic column and its direction of motion, or
// -1 at optimality. Dantzig pricing by default; after a long degenerate
// stretch the state switches to Bland's rule, which cannot cycle.
func (s *simplexState) price(cost, y []float64) (int, float64) {
	bestScore := s.tol
	best, bestDir := -1, 0.0
	for j := 0; j < s.totalCols(); j++ {
		st := s.status[j]
		if st == inBasis {
			continue
		}
		if st != atFree && s.hi[j]-s.lo[j] <= 0 {
			continue
		}
		d := cost[j] - s.colDot(y, j)
		var dir, score float64
		switch st {
		case atLower:
			dir, score = 1, d
		case atUpper:
			dir, score = -1, -d
		default:
			if d >= 0 {
				dir, score = 1, d
			} else {
				dir, score = -1, -d
			}
		}
		if score <= s.tol {
			continue
		}
		if s.bland {
			return j, dir
		}
		if score > bestScore {
			best, bestScore, bestDir = j, score, dir
		}
	}
	return best, bestDir
}

// refreshXB recomputes the basic values from the rest of the assignment,
// discarding accumulated pivot drift.
func (s *simplexState) refreshXB() {
	m := len(s.basis)
	resid := make([]float64, m)
	copy(resid, s.p.rhs)
	for j := 0; j < s.totalCols(); j++ {
		if s.status[j] == inBasis {
			continue
		}
		v := s.restValue(j)
		if v == 0 {
			continue
		}
		if j < s.nTot {
			for i, aij := range s.cols[j] {
				resid[i] -= aij * v
			}
		} else {
			a := s.art[j-s.nTot]
			resid[a.row] -= a.sign * v
		}
	}
	for i := 0; i < m; i++ {
		row := s.binv.RawRowView(i)
		var sum float64
		for k, v := range row {
			sum += v * resid[k]
		}
		s.xB[i] = sum
	}
}

// infeasibility sums the artificial values left after phase one.
func (s *simplexState) infeasibility() float64 {
	var sum float64
	for k := range s.art {
		if j := s.nTot + k; s.status[j] != inBasis {
			sum += s.restValue(j)
		}
	}
	for i, bj := range s.basis {
		if bj >= s.nTot {
			sum += math.Abs(s.xB[i])
		}
	}
	return sum
}
