package solver

import "math"

// Var identifies a decision variable within a Model.
type Var int

// Term is one linear coefficient of a constraint or objective.
type Term struct {
	Var  Var
	Coef float64
}

type constraintKind int

const (
	lessEq constraintKind = iota
	equal
)

type constraint struct {
	terms []Term
	kind  constraintKind
	rhs   float64
}

// ExclusiveGroup names two disjoint variable sets of which at most one may
// be active (nonzero) in a feasible assignment. It expresses a categorical
// state: neither set active, the first active, or the second active.
type ExclusiveGroup struct {
	A []Var
	B []Var
}

// Model is a linear maximisation problem over bounded continuous variables,
// optionally with exclusive groups enforced by branching.
type Model struct {
	names    []string
	lo, hi   []float64
	obj      []float64
	objConst float64
	cons     []constraint
	groups   []ExclusiveGroup
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// NewVar adds a variable bounded to [lo, hi] and returns its handle.
func (m *Model) NewVar(name string, lo, hi float64) Var {
	m.names = append(m.names, name)
	m.lo = append(m.lo, lo)
	m.hi = append(m.hi, hi)
	m.obj = append(m.obj, 0)
	return Var(len(m.names) - 1)
}

// NumVars reports the number of variables added so far.
func (m *Model) NumVars() int { return len(m.names) }

// Name returns the variable's declared name.
func (m *Model) Name(v Var) string { return m.names[v] }

// SetObjCoef sets the maximisation coefficient of v.
func (m *Model) SetObjCoef(v Var, coef float64) { m.obj[v] = coef }

// AddObjCoef accumulates onto the maximisation coefficient of v.
func (m *Model) AddObjCoef(v Var, coef float64) { m.obj[v] += coef }

// SetObjConst sets a constant objective offset carried into the result.
func (m *Model) SetObjConst(c float64) { m.objConst = c }

// AddLessEq adds the constraint sum(terms) <= rhs.
func (m *Model) AddLessEq(terms []Term, rhs float64) {
	m.cons = append(m.cons, constraint{terms: terms, kind: lessEq, rhs: rhs})
}

// AddEqual adds the constraint sum(terms) == rhs.
func (m *Model) AddEqual(terms []Term, rhs float64) {
	m.cons = append(m.cons, constraint{terms: terms, kind: equal, rhs: rhs})
}

// AddExclusive declares that at most one of the two variable sets may be
// nonzero. Both sets must contain only variables whose bounds include zero.
func (m *Model) AddExclusive(a, b []Var) {
	m.groups = append(m.groups, ExclusiveGroup{A: a, B: b})
}

func finite(v float64) bool { return !math.IsInf(v, 0) }
