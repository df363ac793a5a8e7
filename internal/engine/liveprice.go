package engine

// liveComparator picks the worse of two prices for a particular side: max
// for a buy (the highest price the firm might be buying at), min for a
// sell (the lowest price it might be selling at).
type liveComparator func(a, b int) int

func maxComparator(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minComparator(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// livePrice returns the single price representing the firm's current
// exposure on order's side: the worse of whatever the exchange has
// already acknowledged and whatever might yet be acknowledged. Only
// InsertOrder and AmendOrder operations contribute; a later ack overwrites
// an earlier one, and pending (non-acked) prices are folded together with
// cmp as they're seen.
func (e *Engine) livePrice(cmp liveComparator, order *Order) int {
	inflightPrice := order.Price
	lastAckedPrice := order.Price

	for _, opID := range order.History {
		op := e.operations[opID]
		if op.Type != InsertOrder && op.Type != AmendOrder {
			continue
		}
		payload, ok := op.Payload.(OrderPayload)
		if !ok {
			continue
		}
		if op.State == Acked {
			lastAckedPrice = payload.Price
		} else {
			inflightPrice = cmp(payload.Price, inflightPrice)
		}
	}

	return cmp(inflightPrice, lastAckedPrice)
}
