package selector

import (
	"errors"
	"fmt"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// ErrInfeasibleModel is matched by InfeasibleModelError
var ErrInfeasibleModel = errors.New("model has no optimal solution")

// InfeasibleModelError reports a solve that did not end Optimal.
// Infeasible, Unbounded, NotSolved and Undefined are all reported this way.
type InfeasibleModelError struct {
	Status mip.Status
}

func (e *InfeasibleModelError) Error() string {
	return fmt.Sprintf("no optimal selection: solver status %s", e.Status)
}

func (e *InfeasibleModelError) Is(target error) bool {
	return target == ErrInfeasibleModel
}
