package engine

import "go.uber.org/zap"

// InsertOrder materialises a new order and its InsertOrder operation,
// cross-checks it, and either sends it immediately or queues it depending
// on throttleOpenRoll. A crossed insert is rejected: the order and its
// operation are discarded and (nil, errOrderCrossed) is returned.
func (e *Engine) InsertOrder(side Side, price, qty int, throttleOpenRoll bool) (*Order, error) {
	order := e.allocateOrder(side, price, qty)
	op := e.allocateOperation(order)
	op.Type = InsertOrder
	op.Payload = OrderPayload{Price: price, Qty: qty}

	if !e.checkPendingInsertOrAmend(order) {
		e.log.Info("order insert crossed, rejecting", zap.String("order_id", string(order.ID)))
		e.discardOrder(order)
		return nil, errOrderCrossed
	}

	if !e.CheckThrottle(throttleOpenRoll) {
		e.pushToThrottle(order, op)
		return order, nil
	}

	e.SendToMarket(op)
	return order, nil
}

// AmendOrder updates order's intended price/qty immediately (ahead of any
// ack), cross-checks the new values, and either sends or queues the
// resulting AmendOrder operation. A crossed amend discards the amend and
// schedules the order for deletion instead of leaving it stranded at an
// inconsistent price.
func (e *Engine) AmendOrder(orderID OrderID, newPrice, newQty int, throttleOpenRoll bool) error {
	order, err := e.order(orderID)
	if err != nil {
		return err
	}
	if order.State == DeleteSentToMarket || order.State == Finalised {
		e.log.Error("amend rejected: order already deleting or gone",
			zap.String("order_id", string(orderID)))
		return errNotAmendable
	}

	previous := order.History[len(order.History)-1]
	order.Price = newPrice
	order.Qty = newQty

	op := e.allocateOperation(order)
	op.Type = AmendOrder
	op.Payload = OrderPayload{Price: newPrice, Qty: newQty}
	op.PreviousOperation = previous

	if !e.checkPendingInsertOrAmend(order) {
		e.log.Info("order amend crossed, rejecting and scheduling delete",
			zap.String("order_id", string(orderID)))
		e.discardOperation(order, op.ID)
		return e.DeleteOrder(orderID, throttleOpenRoll)
	}

	if !e.CheckThrottle(throttleOpenRoll) {
		e.pushToThrottle(order, op)
		return nil
	}

	e.SendToMarket(op)
	return nil
}

// DeleteOrder deletes order. An order still PriorToMarket is removed
// immediately with no dispatch (the fast path); otherwise a DeleteOrder
// operation is created and sent or queued like any other instruction.
func (e *Engine) DeleteOrder(orderID OrderID, throttleOpenRoll bool) error {
	order, err := e.order(orderID)
	if err != nil {
		return err
	}
	if order.State == Finalised {
		return errNotCancelable
	}

	if order.State == PriorToMarket {
		e.removeFromThrottle(order.ID)
		order.State = Finalised
		e.discardOrder(order)
		return nil
	}

	previous := order.History[len(order.History)-1]
	op := e.allocateOperation(order)
	op.Type = DeleteOrder
	op.Payload = OrderPayload{Price: order.Price, Qty: order.Qty}
	op.PreviousOperation = previous

	e.removeFromThrottle(order.ID)
	e.removeDiscardedOperations(order, op)

	if !e.CheckThrottle(throttleOpenRoll) {
		e.pushToThrottle(order, op)
		return nil
	}

	e.SendToMarket(op)
	return nil
}

// InsertQuote submits a new two-sided (or one-sided) quote operation,
// conflating with anything still queued for the quote entity.
func (e *Engine) InsertQuote(bid, ask *QuoteSide, throttleOpenRoll bool) error {
	return e.submitQuote(InsertQuote, bid, ask, throttleOpenRoll)
}

// DeleteQuote clears both sides of the quote (open-question resolution
// (a), SPEC_FULL.md §9): it submits a DeleteQuote operation carrying a
// both-nil payload through the same pipeline as any other quote
// operation, stamped with its own operation type rather than InsertQuote
// so it drains with cancellation priority (§4.4) and is excluded from the
// shadow-book append on dispatch (§4.5), the same as DeleteOrder.
func (e *Engine) DeleteQuote(throttleOpenRoll bool) error {
	return e.submitQuote(DeleteQuote, nil, nil, throttleOpenRoll)
}

func (e *Engine) submitQuote(opType OperationType, bid, ask *QuoteSide, throttleOpenRoll bool) error {
	quote := e.orders[e.quoteID]

	var previous OperationID = noOperation
	if len(quote.History) > 0 {
		last := e.operations[quote.History[len(quote.History)-1]]
		// A dispatched DeleteQuote has already taken the quote's entry out of
		// the shadow book, so there is nothing left for this operation to
		// supersede.
		if last.Type != DeleteQuote || last.State == Queued {
			previous = last.ID
		}
	}

	op := e.allocateOperation(quote)
	op.Type = opType
	op.Payload = QuotePayload{Bid: bid, Ask: ask}
	op.PreviousOperation = previous

	if !e.checkPendingQuote(op) {
		e.log.Info("quote crossed, rejecting")
		e.discardOperation(quote, op.ID)
		return errQuoteCrossed
	}

	if !e.CheckThrottle(throttleOpenRoll) {
		e.pushToThrottle(quote, op)
		return nil
	}

	e.SendToMarket(op)
	return nil
}

// SendToMarket dispatches op: it marks the operation SentToMarket, moves
// the owning order's lifecycle state, reconciles the shadow book against
// op.PreviousOperation, and runs the cross assertion.
func (e *Engine) SendToMarket(op *Operation) {
	order := e.orders[op.OrderID]

	op.State = SentToMarket
	if op.Type.isDelete() {
		order.State = DeleteSentToMarket
	} else {
		order.State = OnMarket
	}

	if op.PreviousOperation != noOperation {
		if !e.removeFromShadowBook(op.PreviousOperation) {
			e.log.Fatal("previous operation missing from shadow book",
				zap.String("operation_id", string(op.PreviousOperation)))
		}
	}

	if op.Type == InsertOrder || op.Type == AmendOrder || op.Type == InsertQuote {
		e.shadowBook.PushBack(op.ID)
	}

	e.AssertBookNotCrossed()
}

// AckOperations promotes up to numToAck SentToMarket operations to Acked,
// walking orders in allocation order and, within an order, history order.
func (e *Engine) AckOperations(numToAck int) {
	acked := 0
	for _, orderID := range e.orderSeq {
		if acked >= numToAck {
			break
		}
		order := e.orders[orderID]
		if order.State == Finalised {
			continue
		}
		for _, opID := range order.History {
			if acked >= numToAck {
				break
			}
			op := e.operations[opID]
			if op.State != SentToMarket {
				continue
			}

			op.State = Acked
			if op.Type.isDelete() {
				// The quote entity is never finalised: a DeleteQuote only
				// clears its sides.
				if !order.IsQuote {
					order.State = Finalised
				}
			} else if order.State != DeleteSentToMarket {
				order.State = OnMarket
			}
			acked++
		}
	}
}

// LiveOrderIDs returns every non-quote order still eligible to be amended
// or deleted (PriorToMarket or OnMarket), for the action generator to pick
// from.
func (e *Engine) LiveOrderIDs() []OrderID {
	var ids []OrderID
	for _, id := range e.orderSeq {
		order := e.orders[id]
		if order.IsQuote {
			continue
		}
		if order.State == PriorToMarket || order.State == OnMarket {
			ids = append(ids, id)
		}
	}
	return ids
}
