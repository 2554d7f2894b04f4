// Package transport describes the two capabilities the backend offers, a read
// query and a fire-and-forget command, together with their JSON wire format.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTransport wraps every network, timeout or decoding failure of a
// transport so callers can tell it apart from domain errors.
var ErrTransport = errors.New("transport error")

// Action selects the dataset returned by a query.
type Action int

const (
	ActionUnknown Action = iota
	GetRecurringTransactions
	GetTransactions
)

func (a Action) String() string {
	switch a {
	case GetRecurringTransactions:
		return "getRecurringTransactions"
	case GetTransactions:
		return "getTransactions"
	default:
		return "unknown"
	}
}

// Operation is the discriminator of a command.
type Operation int

const (
	OpUnknown Operation = iota
	OpAdd
	OpUpdate
	OpDelete
	OpAddRecurring
	OpUpdateRecurring
	OpDeleteRecurring
)

var operationNames = map[Operation]string{
	OpAdd:             "add",
	OpUpdate:          "update",
	OpDelete:          "delete",
	OpAddRecurring:    "addRecurring",
	OpUpdateRecurring: "updateRecurring",
	OpDeleteRecurring: "deleteRecurring",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// Recurring reports whether the operation targets the recurring rules dataset.
func (o Operation) Recurring() bool {
	return o == OpAddRecurring || o == OpUpdateRecurring || o == OpDeleteRecurring
}

func (o Operation) MarshalText() ([]byte, error) {
	name, ok := operationNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown operation %d", int(o))
	}
	return []byte(name), nil
}

func (o *Operation) UnmarshalText(b []byte) error {
	for op, name := range operationNames {
		if name == string(b) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown operation %q", string(b))
}

// Querier runs read queries and returns the raw response body.
type Querier interface {
	Query(ctx context.Context, action Action) ([]byte, error)
}

// Commander sends write commands. A nil error only means the command left
// without a transport error; it says nothing about it being applied.
type Commander interface {
	Send(ctx context.Context, cmd Command) (Dispatch, error)
}

// Dispatch is the provisional outcome of a command.
type Dispatch struct {
	CommandID string
	Operation Operation
	SentAt    time.Time
}
