// Package sim is the simulation harness around the order-management core:
// the action generator, the throttle/ack oracles, and the book printer the
// spec treats as external collaborators to the core rather than part of
// it (SPEC_FULL.md §1, §6).
package sim

import (
	"mm-oms-core/internal/engine"
	"mm-oms-core/internal/logging"
	"mm-oms-core/internal/randsrc"
)

// Action is one of the twelve action kinds the generator draws uniformly
// from. Repeating quote/amend kinds is how the 6/12 and 3/12 weights in
// the spec are expressed without a separate weighted-sampling step.
type Action int

const (
	ActionInsertOrder Action = iota
	ActionQuoteOnce
	ActionQuoteTwice
	ActionQuoteThreeTimes
	ActionQuoteFourTimes
	ActionQuoteFiveTimes
	ActionQuoteSixTimes
	ActionAmendOnce
	ActionAmendTwice
	ActionAmendThreeTimes
	ActionDeleteOrder
	ActionDeleteQuote
	numActions
)

// Params bundles the generator/oracle tunables that come from config
// rather than from the engine itself.
type Params struct {
	UpperPrice                    int
	MaxOperationsToGenerate       int
	ThrottleProbability           float64
	MaxOperationsToClearFromQueue int
	MaxOperationsToAcknowledge    int
}

// Generator draws and performs actions against an engine.
type Generator struct {
	eng *engine.Engine
	src randsrc.Source
	log *logging.Logger
	p   Params
}

// NewGenerator builds a Generator bound to eng, drawing from src.
func NewGenerator(eng *engine.Engine, src randsrc.Source, log *logging.Logger, p Params) *Generator {
	return &Generator{eng: eng, src: src, log: log, p: p}
}

func (g *Generator) randomPrice(lower, upper int) int {
	return randsrc.IntRange(g.src, lower, upper)
}

func (g *Generator) randomQty() int {
	return randsrc.IntRange(g.src, 1, 100)
}

func (g *Generator) randomSide() engine.Side {
	if g.src.Intn(2) == 0 {
		return engine.Buy
	}
	return engine.Sell
}

func (g *Generator) randomAction() Action {
	return Action(g.src.Intn(int(numActions)))
}

// randomLiveOrder picks a uniformly random live (PriorToMarket or
// OnMarket) non-quote order, or "", false if there are none.
func (g *Generator) randomLiveOrder() (engine.OrderID, bool) {
	live := g.eng.LiveOrderIDs()
	if len(live) == 0 {
		return "", false
	}
	return live[g.src.Intn(len(live))], true
}

func (g *Generator) throttleOpenRoll() bool {
	return ThrottleOpen(g.src, g.eng.ThrottleQueueEmpty(), g.p.ThrottleProbability)
}

// GenerateOrderOperations performs between 1 and MaxOperationsToGenerate
// randomly-chosen actions, the generator's contribution to one driver
// tick.
func (g *Generator) GenerateOrderOperations() {
	n := NumOperationsToGenerate(g.src, g.p.MaxOperationsToGenerate)
	for i := 0; i < n; i++ {
		g.performAction(g.randomAction())
	}
}

func (g *Generator) performAction(action Action) {
	switch action {
	case ActionInsertOrder:
		g.insertOrder()
	case ActionQuoteOnce, ActionQuoteTwice, ActionQuoteThreeTimes,
		ActionQuoteFourTimes, ActionQuoteFiveTimes, ActionQuoteSixTimes:
		g.quote()
	case ActionAmendOnce, ActionAmendTwice, ActionAmendThreeTimes:
		g.amendOrder()
	case ActionDeleteOrder:
		g.deleteOrder()
	case ActionDeleteQuote:
		g.deleteQuote()
	}
}

func (g *Generator) insertOrder() {
	side := g.randomSide()
	price := g.randomPrice(1, g.p.UpperPrice)
	qty := g.randomQty()

	_, err := g.eng.InsertOrder(side, price, qty, g.throttleOpenRoll())
	if err != nil {
		g.log.Debug("insert order rejected")
	}
}

func (g *Generator) amendOrder() {
	orderID, ok := g.randomLiveOrder()
	if !ok {
		return
	}
	price := g.randomPrice(1, g.p.UpperPrice)
	qty := g.randomQty()
	if err := g.eng.AmendOrder(orderID, price, qty, g.throttleOpenRoll()); err != nil {
		g.log.Debug("amend order rejected")
	}
}

func (g *Generator) deleteOrder() {
	orderID, ok := g.randomLiveOrder()
	if !ok {
		return
	}
	if err := g.eng.DeleteOrder(orderID, g.throttleOpenRoll()); err != nil {
		g.log.Debug("delete order rejected")
	}
}

func (g *Generator) quote() {
	bidPrice := g.randomPrice(1, g.p.UpperPrice-1)
	bidQty := g.randomQty()
	askPrice := g.randomPrice(bidPrice+1, g.p.UpperPrice)
	askQty := g.randomQty()

	bid := &engine.QuoteSide{Price: bidPrice, Qty: bidQty}
	ask := &engine.QuoteSide{Price: askPrice, Qty: askQty}

	if err := g.eng.InsertQuote(bid, ask, g.throttleOpenRoll()); err != nil {
		g.log.Debug("quote insert rejected")
	}
}

func (g *Generator) deleteQuote() {
	if err := g.eng.DeleteQuote(g.throttleOpenRoll()); err != nil {
		g.log.Debug("quote delete rejected")
	}
}
