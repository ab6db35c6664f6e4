package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchBound_SimpleLP(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, 10)
	y := m.NewVar("y", 0, 10)
	m.SetObjCoef(x, 1)
	m.SetObjCoef(y, 2)
	m.AddLessEq([]Term{{x, 1}, {y, 1}}, 8)

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 16, res.Objective, 1e-6)
	assert.InDelta(t, 0, res.Values[x], 1e-6)
	assert.InDelta(t, 8, res.Values[y], 1e-6)
}

func TestBranchBound_ObjectiveConstant(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, 3)
	m.SetObjCoef(x, 2)
	m.SetObjConst(-100)

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -94, res.Objective, 1e-6)
}

func TestBranchBound_ExclusiveGroup(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a", 0, 1)
	b := m.NewVar("b", 0, 1)
	m.SetObjCoef(a, 3)
	m.SetObjCoef(b, 2)
	m.AddExclusive([]Var{a}, []Var{b})

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 3, res.Objective, 1e-6)
	assert.InDelta(t, 1, res.Values[a], 1e-6)
	assert.InDelta(t, 0, res.Values[b], 1e-6)
}

func TestBranchBound_ExclusiveGroupsChained(t *testing.T) {
	// Two coupled hours: the shared budget forces the solver to pick one
	// active side per group and the better-paying side overall.
	m := NewModel()
	a0 := m.NewVar("a0", 0, 4)
	b0 := m.NewVar("b0", 0, 4)
	a1 := m.NewVar("a1", 0, 4)
	b1 := m.NewVar("b1", 0, 4)
	m.SetObjCoef(a0, 1)
	m.SetObjCoef(b0, 5)
	m.SetObjCoef(a1, 4)
	m.SetObjCoef(b1, 2)
	m.AddLessEq([]Term{{a0, 1}, {b0, 1}, {a1, 1}, {b1, 1}}, 6)
	m.AddExclusive([]Var{a0}, []Var{b0})
	m.AddExclusive([]Var{a1}, []Var{b1})

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	// b0=4 (5/unit) and a1=2 (4/unit) fill the budget of 6.
	assert.InDelta(t, 28, res.Objective, 1e-6)
	assert.InDelta(t, 0, res.Values[a0], 1e-6)
	assert.InDelta(t, 4, res.Values[b0], 1e-6)
}

func TestBranchBound_Infeasible(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, 1)
	m.SetObjCoef(x, 1)
	m.AddEqual([]Term{{x, 1}}, 2)

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, res.Status)
}

func TestBranchBound_Unbounded(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, math.Inf(1))
	m.SetObjCoef(x, 1)

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, res.Status)
}

func TestBranchBound_TimeCoupledRecurrence(t *testing.T) {
	// Storage-style miniature: eight steps of charge/discharge with an
	// energy recurrence, ramp rows and an end-of-horizon balance. Every
	// variable is bounded and idling is feasible, so the solve must report
	// an optimum rather than unboundedness.
	const steps = 8
	m := NewModel()
	charge := make([]Var, steps)
	discharge := make([]Var, steps)
	energy := make([]Var, steps)
	for i := 0; i < steps; i++ {
		charge[i] = m.NewVar(fmt.Sprintf("c%d", i), 0, 10)
		discharge[i] = m.NewVar(fmt.Sprintf("d%d", i), 0, 10)
		if i == 0 {
			energy[i] = m.NewVar("e0", 25, 25)
		} else {
			energy[i] = m.NewVar(fmt.Sprintf("e%d", i), 10, 40)
		}
		m.SetObjCoef(charge[i], -300*0.25-0.05*0.25/0.9)
		m.SetObjCoef(discharge[i], 300*0.25-0.05*0.9*0.25)
	}
	for i := 1; i < steps; i++ {
		m.AddEqual([]Term{
			{energy[i], 1},
			{energy[i-1], -1},
			{charge[i-1], -0.9 * 0.25},
			{discharge[i-1], 0.25 / 0.9},
		}, 0)
		m.AddLessEq([]Term{{charge[i], 1}, {charge[i-1], -1}}, 2)
		m.AddLessEq([]Term{{discharge[i], 1}, {discharge[i-1], -1}}, 2)
	}
	m.AddEqual([]Term{
		{energy[steps-1], 1},
		{charge[steps-1], 0.9 * 0.25},
		{discharge[steps-1], -0.25 / 0.9},
	}, 25)
	for i := 0; i < steps; i++ {
		m.AddExclusive([]Var{charge[i]}, []Var{discharge[i]})
	}

	res, err := NewBranchBound().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, res.Status)
	// At one flat price every round trip loses efficiency and wear, so the
	// optimum sits idle and earns nothing.
	assert.InDelta(t, 0, res.Objective, 1e-6)
	for i := 0; i < steps; i++ {
		assert.InDelta(t, 0, res.Values[charge[i]], 1e-6, "charge at step %d", i)
		assert.InDelta(t, 0, res.Values[discharge[i]], 1e-6, "discharge at step %d", i)
	}
}

func TestBranchBound_DeadlineExpired(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, 1)
	m.SetObjCoef(x, 1)
	m.AddLessEq([]Term{{x, 1}}, 1)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	res, err := NewBranchBound().Solve(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExhausted))
	assert.Equal(t, StatusError, res.Status)
}

func TestBranchBound_NodeBudget(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a", 0, 1)
	b := m.NewVar("b", 0, 1)
	m.SetObjCoef(a, 1)
	m.SetObjCoef(b, 1)
	m.AddExclusive([]Var{a}, []Var{b})

	s := NewBranchBound()
	s.MaxNodes = 1
	res, err := s.Solve(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExhausted))
	assert.Equal(t, StatusError, res.Status)
}

func TestBranchBound_ContextCancelled(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x", 0, 1)
	m.SetObjCoef(x, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewBranchBound().Solve(ctx, m)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
}

func TestBranchBound_Deterministic(t *testing.T) {
	build := func() *Model {
		m := NewModel()
		a := m.NewVar("a", 0, 2)
		b := m.NewVar("b", 0, 2)
		c := m.NewVar("c", 0, 2)
		m.SetObjCoef(a, 2)
		m.SetObjCoef(b, 3)
		m.SetObjCoef(c, 1)
		m.AddLessEq([]Term{{a, 1}, {b, 1}, {c, 1}}, 3)
		m.AddExclusive([]Var{a}, []Var{b})
		return m
	}
	first, err := NewBranchBound().Solve(context.Background(), build())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		res, err := NewBranchBound().Solve(context.Background(), build())
		require.NoError(t, err)
		assert.Equal(t, first.Objective, res.Objective)
	}
}
