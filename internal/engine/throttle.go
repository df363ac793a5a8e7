package engine

// ThrottleQueueEmpty reports whether the throttle queue currently holds
// anything. The simulation harness only rolls its throttle-open coin flip
// when this is true, mirroring the reference program's short-circuited
// CheckThrottle.
func (e *Engine) ThrottleQueueEmpty() bool {
	return e.throttle.Len() == 0
}

// CheckThrottle implements the structural half of the throttle-open test:
// the window is always closed while anything is queued, regardless of the
// caller's coin flip. The probabilistic half (rolling whether an empty
// window opens this tick) lives in the simulation harness, which supplies
// the result as throttleOpenRoll — the core itself never touches a random
// source (SPEC_FULL.md §9).
func (e *Engine) CheckThrottle(throttleOpenRoll bool) bool {
	if e.throttle.Len() > 0 {
		return false
	}
	return throttleOpenRoll
}

// pushToThrottle admits op to the throttle queue, conflating away any
// operation already queued for the same order (the newest instruction
// supersedes older queued ones).
func (e *Engine) pushToThrottle(order *Order, op *Operation) {
	e.removeFromThrottle(order.ID)
	e.throttle.PushBack(op.ID)
	op.State = Queued

	e.removeDiscardedOperations(order, op)
}

// removeFromThrottle removes every queued operation belonging to orderID,
// preserving the relative order of everything left behind. It does not
// touch those operations' State or remove them from the arena — callers
// that mean to discard them entirely must follow up with
// removeDiscardedOperations.
func (e *Engine) removeFromThrottle(orderID OrderID) {
	n := e.throttle.Len()
	var kept []OperationID
	for i := 0; i < n; i++ {
		id := e.throttle.PopFront()
		if e.operations[id].OrderID == orderID {
			continue
		}
		kept = append(kept, id)
	}
	for _, id := range kept {
		e.throttle.PushBack(id)
	}
}

// removeDiscardedOperations drops every operation still Queued in order's
// history other than keep itself: those superseded drafts must never be
// dispatched or considered by the live-price evaluator again. If keep's
// PreviousOperation points at a draft discarded here, the link is
// rewritten to that draft's own PreviousOperation first — mirroring the
// reference program's RemoveDiscardedOperations, which performs the same
// fix-up before pruning. Without it, SendToMarket would later look up a
// back-link to an operation that no longer exists.
func (e *Engine) removeDiscardedOperations(order *Order, keep *Operation) {
	var kept []OperationID
	for _, id := range order.History {
		if id == keep.ID {
			kept = append(kept, id)
			continue
		}
		op := e.operations[id]
		if op.State == Queued {
			if keep.PreviousOperation == id {
				keep.PreviousOperation = op.PreviousOperation
			}
			delete(e.operations, id)
			continue
		}
		kept = append(kept, id)
	}
	order.History = kept
}

// ProcessThrottleQueue drains up to window operations from the tail of the
// throttle queue in two passes: deletes first (Pass 1), then everything
// else (Pass 2), each dispatched via SendToMarket.
func (e *Engine) ProcessThrottleQueue(window int) {
	if e.throttle.Len() == 0 {
		return
	}

	window = e.drainPass(window, func(op *Operation) bool { return op.Type.isDelete() })
	e.drainPass(window, func(op *Operation) bool { return !op.Type.isDelete() })
}

// drainPass walks the queue tail-to-head, dispatching entries matching
// want, up to window dispatches, and returns the remaining window. Entries
// not dispatched are put back in their original relative order.
func (e *Engine) drainPass(window int, want func(*Operation) bool) int {
	if window <= 0 {
		return window
	}

	n := e.throttle.Len()
	tailFirst := make([]OperationID, n)
	for i := 0; i < n; i++ {
		tailFirst[i] = e.throttle.PopBack()
	}

	var remainingHeadFirst []OperationID
	dispatched := 0
	for _, id := range tailFirst {
		op := e.operations[id]
		if dispatched < window && want(op) {
			e.SendToMarket(op)
			dispatched++
			continue
		}
		// Prepend to restore head-first relative order among survivors.
		remainingHeadFirst = append([]OperationID{id}, remainingHeadFirst...)
	}
	for _, id := range remainingHeadFirst {
		e.throttle.PushBack(id)
	}
	return window - dispatched
}
