package mip

import (
	"fmt"
	"math"
	"strings"
)

// VarID identifies a variable within a single Model
type VarID int

// Sense is the optimisation direction of the objective
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Minimize {
		return "Minimize"
	}
	return "Maximize"
}

// Op is the relation between the left and right hand side of a constraint
type Op int

const (
	Equal Op = iota
	LessEqual
	GreaterEqual
)

func (o Op) String() string {
	switch o {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "="
	}
}

// Var is a binary decision variable
type Var struct {
	ID   VarID
	Name string
}

// Term is a coefficient applied to a variable
type Term struct {
	Var  VarID
	Coef float64
}

// Constraint is a named linear row: sum(Terms) Op RHS
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	RHS   float64
}

// Model is a pure 0/1 linear program.
// All variables are binary; names are expected to be unique and made of
// letters, digits and underscores so they can be written to LP files as-is.
type Model struct {
	Name string

	sense       Sense
	vars        []Var
	objective   []Term
	constraints []Constraint
	byName      map[string]VarID
}

// NewModel creates an empty model
func NewModel(name string, sense Sense) *Model {
	return &Model{
		Name:   name,
		sense:  sense,
		byName: make(map[string]VarID),
	}
}

// AddBinary adds a binary variable and returns its ID
func (m *Model) AddBinary(name string) VarID {
	id := VarID(len(m.vars))
	m.vars = append(m.vars, Var{ID: id, Name: name})
	m.byName[name] = id
	return id
}

// AddObjectiveTerm adds coef*v to the objective
func (m *Model) AddObjectiveTerm(v VarID, coef float64) {
	m.objective = append(m.objective, Term{Var: v, Coef: coef})
}

// AddConstraint appends a linear constraint
func (m *Model) AddConstraint(name string, terms []Term, op Op, rhs float64) {
	m.constraints = append(m.constraints, Constraint{
		Name:  name,
		Terms: terms,
		Op:    op,
		RHS:   rhs,
	})
}

// AddCardinalityChoice forces sum(terms) to be either 0 or k.
// It adds sum(terms) - k*helper = 0, where helper is a binary variable
// owned by the caller.
func (m *Model) AddCardinalityChoice(name string, terms []Term, k float64, helper VarID) {
	row := make([]Term, 0, len(terms)+1)
	row = append(row, terms...)
	row = append(row, Term{Var: helper, Coef: -k})
	m.AddConstraint(name, row, Equal, 0)
}

func (m *Model) Sense() Sense              { return m.sense }
func (m *Model) Vars() []Var               { return m.vars }
func (m *Model) Objective() []Term         { return m.objective }
func (m *Model) Constraints() []Constraint { return m.constraints }
func (m *Model) NumVars() int              { return len(m.vars) }

// VarByName looks up a variable by name
func (m *Model) VarByName(name string) (VarID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Evaluate returns the objective value for the given assignment.
// Missing variables count as 0.
func (m *Model) Evaluate(values map[VarID]float64) float64 {
	total := 0.0
	for _, t := range m.objective {
		total += t.Coef * values[t.Var]
	}
	return total
}

// Violations returns the names of constraints not satisfied by values within tol
func (m *Model) Violations(values map[VarID]float64, tol float64) []string {
	var violated []string
	for _, c := range m.constraints {
		lhs := 0.0
		for _, t := range c.Terms {
			lhs += t.Coef * values[t.Var]
		}
		ok := true
		switch c.Op {
		case Equal:
			ok = math.Abs(lhs-c.RHS) <= tol
		case LessEqual:
			ok = lhs <= c.RHS+tol
		case GreaterEqual:
			ok = lhs >= c.RHS-tol
		}
		if !ok {
			violated = append(violated, c.Name)
		}
	}
	return violated
}

// Summary describes the model size, used for verbose output
func (m *Model) Summary() string {
	nonZeros := 0
	for _, c := range m.constraints {
		nonZeros += len(c.Terms)
	}
	return fmt.Sprintf("%s: %s %d binaries, %d constraints, %d non-zeros",
		m.Name, strings.ToLower(m.sense.String()), len(m.vars), len(m.constraints), nonZeros)
}
