package engine

import "go.uber.org/zap"

// removeFromShadowBook removes the single entry matching id by identity.
// Returns false if it wasn't present (a fatal invariant breach upstream).
func (e *Engine) removeFromShadowBook(id OperationID) bool {
	n := e.shadowBook.Len()
	found := false
	var kept []OperationID
	for i := 0; i < n; i++ {
		cur := e.shadowBook.PopFront()
		if !found && cur == id {
			found = true
			continue
		}
		kept = append(kept, cur)
	}
	for _, cur := range kept {
		e.shadowBook.PushBack(cur)
	}
	return found
}

// ShadowBookEntries returns the current shadow book contents in dispatch
// order, for printers and tests. The returned slice is a snapshot.
func (e *Engine) ShadowBookEntries() []*Operation {
	n := e.shadowBook.Len()
	entries := make([]*Operation, 0, n)
	for i := 0; i < n; i++ {
		id := e.shadowBook.At(i)
		entries = append(entries, e.operations[id])
	}
	return entries
}

// PriceLevel is one row of the aggregated shadow-book view: total resting
// bid and ask quantity at a given price.
type PriceLevel struct {
	Price  int
	BidQty int
	AskQty int
}

// AggregateByPrice folds the shadow book into per-price bid/ask totals,
// the representation both the book printer and AssertBookNotCrossed work
// from.
func (e *Engine) AggregateByPrice() map[int]*PriceLevel {
	levels := make(map[int]*PriceLevel)
	level := func(price int) *PriceLevel {
		l, ok := levels[price]
		if !ok {
			l = &PriceLevel{Price: price}
			levels[price] = l
		}
		return l
	}

	for _, op := range e.ShadowBookEntries() {
		order := e.orders[op.OrderID]
		switch payload := op.Payload.(type) {
		case QuotePayload:
			if payload.Bid != nil {
				level(payload.Bid.Price).BidQty += payload.Bid.Qty
			}
			if payload.Ask != nil {
				level(payload.Ask.Price).AskQty += payload.Ask.Qty
			}
		case OrderPayload:
			if order.Side == Buy {
				level(payload.Price).BidQty += payload.Qty
			} else {
				level(payload.Price).AskQty += payload.Qty
			}
		}
	}
	return levels
}

// AssertBookNotCrossed is the silent half of the design note splitting the
// reference program's printer into a trace (internal/sim) and an
// always-on invariant check (here): it runs after every dispatch and
// terminates the process if the shadow book ever holds a price level with
// both a live bid and a live ask, which would mean the firm is crossed
// against itself.
func (e *Engine) AssertBookNotCrossed() {
	for price, level := range e.AggregateByPrice() {
		if level.BidQty > 0 && level.AskQty > 0 {
			e.log.Fatal("shadow book in cross",
				zap.Int("price", price),
				zap.Int("bid_qty", level.BidQty),
				zap.Int("ask_qty", level.AskQty),
			)
		}
	}
}
