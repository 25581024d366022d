package alert

import (
	"strings"

	"github.com/pkg/errors"
)

// DeliveryPolicy decides what happens to a triggered alert whose notification failed
type DeliveryPolicy int

const (
	// DropOnFailure removes a triggered alert whether or not the notification went out (at-most-once)
	DropOnFailure DeliveryPolicy = iota
	// RetryOnFailure keeps the alert pending until a notification is delivered
	RetryOnFailure
)

func (p DeliveryPolicy) String() string {
	switch p {
	case RetryOnFailure:
		return "retry"
	default:
		return "drop"
	}
}

// ParseDeliveryPolicy maps the configuration value ("drop" or "retry") to a policy
func ParseDeliveryPolicy(s string) (DeliveryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropOnFailure, nil
	case "retry":
		return RetryOnFailure, nil
	}
	return DropOnFailure, errors.Errorf("unknown delivery policy %q", s)
}

// DeliveryStatus is the outcome of a single notification attempt
type DeliveryStatus int

const (
	DeliveryOK DeliveryStatus = iota
	DeliveryFailed
)

func (s DeliveryStatus) String() string {
	if s == DeliveryOK {
		return "ok"
	}
	return "failed"
}

// DeliveryResult carries the status of a notification and the error behind a failure
type DeliveryResult struct {
	Status DeliveryStatus
	Err    error
}

func deliveryResult(err error) DeliveryResult {
	if err != nil {
		return DeliveryResult{Status: DeliveryFailed, Err: err}
	}
	return DeliveryResult{Status: DeliveryOK}
}

// keep reports whether a triggered alert stays pending under the policy
func (p DeliveryPolicy) keep(r DeliveryResult) bool {
	return p == RetryOnFailure && r.Status == DeliveryFailed
}
