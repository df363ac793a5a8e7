package engine

import "errors"

var (
	errOrderNotFound     = errors.New("order not found")
	errOperationNotFound = errors.New("operation not found")
	errOrderCrossed      = errors.New("order would cross")
	errQuoteCrossed      = errors.New("quote would cross")
	errNotAmendable      = errors.New("order is not amendable")
	errNotCancelable     = errors.New("order is not cancelable")
)
