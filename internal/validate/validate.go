// Package validate implements the edge-level request validator: the only
// point at which a request can be rejected synchronously to the HTTP
// caller. Everything past this point is acknowledged by the act of
// enqueueing — a failure found here never reaches an input queue.
package validate

import "fmt"

// Request is the shape the validator checks, independent of which
// endpoint produced it: a quantity, a minimum, and an optional
// expiration. Cancel requests carry none of these and are never routed
// through Check.
type Request struct {
	Quantity        uint64
	MinimumQuantity uint64
	ExpirationUnix  int64 // 0 means "no expiration requested"
	NowUnix         int64
}

// Result reports whether a request passed, and if not, why.
type Result struct {
	Passed bool
	Reason string
}

// Check runs every edge check and returns on the first failure.
func Check(req Request) Result {
	if req.Quantity == 0 {
		return Result{Reason: "quantity must be greater than zero"}
	}
	if req.MinimumQuantity > req.Quantity {
		return Result{Reason: fmt.Sprintf("minimum quantity %d exceeds quantity %d", req.MinimumQuantity, req.Quantity)}
	}
	if req.ExpirationUnix != 0 && req.ExpirationUnix < req.NowUnix {
		return Result{Reason: "expiration date is in the past"}
	}
	return Result{Passed: true}
}
