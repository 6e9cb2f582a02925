// Package encoding holds the three interchangeable representations of a job-shop
// solution: start times (Schedule), a dispatch sequence of job numbers (JobNumbers) and
// per-machine task orders (ResourceOrder).
//
// Conversions always allocate fresh storage; no two encodings share slices.
package encoding

import (
	"errors"

	"jobshop/jsp"
)

var ErrInfeasibleOrder = errors.New("resource order has a cyclic precedence")

// Encoding is any representation that can be decoded into start times.
// The boolean is false when the encoding describes no feasible schedule.
type Encoding interface {
	Instance() *jsp.Instance
	ToSchedule() (*Schedule, bool)
}

var (
	_ Encoding = (*Schedule)(nil)
	_ Encoding = (*JobNumbers)(nil)
	_ Encoding = (*ResourceOrder)(nil)
)
