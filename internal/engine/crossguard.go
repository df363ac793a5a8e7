package engine

import "math"

// checkPendingInsertOrAmend decides whether pendingOrder's current
// (just-set) price would cross the firm's own resting liquidity: first the
// quote, then every other live opposing order. Returns false to mean "would
// cross".
func (e *Engine) checkPendingInsertOrAmend(pendingOrder *Order) bool {
	if !e.checkAgainstQuote(pendingOrder) {
		return false
	}
	return e.checkAgainstOrders(pendingOrder)
}

func (e *Engine) checkAgainstQuote(pendingOrder *Order) bool {
	quote := e.orders[e.quoteID]

	if pendingOrder.Side == Buy {
		lastAckedAsk := math.MaxInt
		lowestUnackedAsk := math.MaxInt
		for _, opID := range quote.History {
			op := e.operations[opID]
			payload, ok := op.Payload.(QuotePayload)
			if !ok || payload.Ask == nil {
				continue
			}
			if op.State == Acked {
				lastAckedAsk = payload.Ask.Price
			} else {
				lowestUnackedAsk = minComparator(lowestUnackedAsk, payload.Ask.Price)
			}
		}
		effectiveAsk := minComparator(lastAckedAsk, lowestUnackedAsk)
		if pendingOrder.Price >= effectiveAsk {
			e.log.Info("buy order crosses with existing quote")
			return false
		}
		return true
	}

	lastAckedBid := math.MinInt
	highestUnackedBid := math.MinInt
	for _, opID := range quote.History {
		op := e.operations[opID]
		payload, ok := op.Payload.(QuotePayload)
		if !ok || payload.Bid == nil {
			continue
		}
		if op.State == Acked {
			lastAckedBid = payload.Bid.Price
		} else {
			highestUnackedBid = maxComparator(highestUnackedBid, payload.Bid.Price)
		}
	}
	effectiveBid := maxComparator(lastAckedBid, highestUnackedBid)
	if pendingOrder.Price <= effectiveBid {
		e.log.Info("sell order crosses with existing quote")
		return false
	}
	return true
}

func (e *Engine) checkAgainstOrders(pendingOrder *Order) bool {
	for _, id := range e.orderSeq {
		order := e.orders[id]
		if order.IsQuote {
			continue
		}
		if order.Side == pendingOrder.Side {
			continue
		}
		if order.State == Finalised || order.State == DeleteSentToMarket {
			continue
		}

		if pendingOrder.Side == Buy {
			pendingBuy := e.livePrice(maxComparator, pendingOrder)
			minSubmittedSell := e.livePrice(minComparator, order)
			if pendingBuy < minSubmittedSell {
				continue
			}
			e.log.Info("buy order crosses with existing order")
		} else {
			pendingSell := e.livePrice(minComparator, pendingOrder)
			maxSubmittedBuy := e.livePrice(maxComparator, order)
			if pendingSell > maxSubmittedBuy {
				continue
			}
			e.log.Info("sell order crosses with existing order")
		}
		return false
	}
	return true
}

// checkPendingQuote decides whether a proposed quote operation would cross
// any live non-quote order. Returns false to mean "would cross". A
// DeleteQuote operation (both sides nil) trivially passes: there is
// nothing active to compare.
func (e *Engine) checkPendingQuote(quoteOp *Operation) bool {
	payload, ok := quoteOp.Payload.(QuotePayload)
	if !ok {
		return true
	}

	for _, id := range e.orderSeq {
		order := e.orders[id]
		if order.IsQuote {
			continue
		}
		if order.State == Finalised || order.State == DeleteSentToMarket {
			continue
		}

		switch order.Side {
		case Buy:
			if payload.Ask == nil {
				continue
			}
			maxSubmittedBuy := e.livePrice(maxComparator, order)
			if payload.Ask.Price > maxSubmittedBuy {
				continue
			}
			e.log.Info("quote ask crosses with existing order")
		case Sell:
			if payload.Bid == nil {
				continue
			}
			minSubmittedSell := e.livePrice(minComparator, order)
			if payload.Bid.Price < minSubmittedSell {
				continue
			}
			e.log.Info("quote bid crosses with existing order")
		}
		return false
	}
	return true
}
