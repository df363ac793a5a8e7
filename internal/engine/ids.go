package engine

import "github.com/google/uuid"

// OrderID and OperationID are stable, opaque identifiers used everywhere a
// raw reference would otherwise dangle: the throttle queue and the shadow
// book hold these, not pointers, so neither collection can outlive the
// arena entry it names.
type OrderID string

type OperationID string

// noOperation is the zero value of OperationID, standing in for
// Option<OperationID>::None on a previousOperation back-link.
const noOperation OperationID = ""

func newOrderID() OrderID {
	return OrderID(uuid.New().String())
}

func newOperationID() OperationID {
	return OperationID(uuid.New().String())
}
