// Package house provides the canvassed-house domain model.
package house

import (
	"errors"
	"fmt"
	"strings"
)

// Status represents where a house is in the canvassing workflow.
type Status string

const (
	StatusUnvisited Status = "Unvisited"
	StatusAccepted  Status = "Accepted"
	StatusDeclined  Status = "Declined"
	StatusNoAnswer  Status = "No Answer"
)

// Statuses is the closed set of allowed statuses, in display order.
var Statuses = []Status{StatusUnvisited, StatusAccepted, StatusDeclined, StatusNoAnswer}

// ActiveStatuses are the statuses loaded into the working set.
var ActiveStatuses = []Status{StatusUnvisited, StatusNoAnswer}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether a house with this status still needs a knock.
func (s Status) IsActive() bool {
	return s == StatusUnvisited || s == StatusNoAnswer
}

// ParseStatus accepts an exact status or a loose spelling such as
// "no_answer", "noanswer" or "ACCEPTED".
func ParseStatus(s string) (Status, error) {
	if st := Status(s); st.IsValid() {
		return st, nil
	}
	key := statusKey(s)
	for _, v := range Statuses {
		if statusKey(string(v)) == key {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (want one of: %s)", s, strings.Join(statusNames(), ", "))
}

func statusKey(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(s))
}

func statusNames() []string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return names
}

// ErrEmptyAddress is returned when an address has no visible text.
var ErrEmptyAddress = errors.New("address is required")

// NormalizeAddress trims an address and collapses inner whitespace.
func NormalizeAddress(s string) (string, error) {
	a := strings.Join(strings.Fields(s), " ")
	if a == "" {
		return "", ErrEmptyAddress
	}
	return a, nil
}

// House is one canvassed address.
type House struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Status  Status `json:"status"`
}
