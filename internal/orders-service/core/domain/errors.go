package domain

import (
	"errors"
	"strings"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrUnknownBroker       = errors.New("unknown broker")
	ErrOrderNotCancellable = errors.New("order is not cancellable")
	ErrBrokerUnavailable   = errors.New("broker unavailable")
	// ErrPlacementInProgress is returned to a retry that arrives while the first
	// placement under the same idempotency key is still running.
	ErrPlacementInProgress = errors.New("placement in progress")
)

// ValidationError describes one rejected field. Loc is the path to the field,
// starting with where it came from ("body" or "query").
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, strings.Join(e.Loc, ".")+": "+e.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// JoinValidation merges the ValidationErrors of errs into one. A non-validation
// error is returned as is, before any merging.
func JoinValidation(errs ...error) error {
	var merged ValidationErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		merged = append(merged, verrs...)
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
