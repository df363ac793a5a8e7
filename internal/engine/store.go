// Package engine implements the order-management core: the entity store,
// live-price evaluator, cross guard, throttle/conflation queue and
// dispatcher/ack-reconciler described by the specification. It is
// single-threaded by contract (see the package-level design notes in
// SPEC_FULL.md §5) and performs no internal locking.
package engine

import (
	"github.com/gammazero/deque"

	"mm-oms-core/internal/logging"
)

// Config holds the engine's own tunables: garbage-collection thresholds.
// Knobs used only by the simulation harness (upper price, throttle
// probability, drain/ack batch caps) live outside the engine — see
// internal/config.
type Config struct {
	OrderGCThreshold       int
	QuoteHistoryThreshold  int
	QuoteHistoryCheckIndex int // 1-based, per spec ("151st-from-front")
	QuoteHistoryTrim       int
}

// DefaultConfig mirrors the reference program's hard-coded GC thresholds.
func DefaultConfig() Config {
	return Config{
		OrderGCThreshold:       1000,
		QuoteHistoryThreshold:  200,
		QuoteHistoryCheckIndex: 151,
		QuoteHistoryTrim:       150,
	}
}

// Engine is the entity store plus every other component threaded through
// it: a value type field-owns the order/operation arenas, the shadow book
// and the throttle queue, replacing the reference program's process-wide
// globals (SPEC_FULL.md §9).
type Engine struct {
	cfg Config
	log *logging.Logger

	orders     map[OrderID]*Order
	operations map[OperationID]*Operation
	orderSeq   []OrderID // allocation order, used for AckOperations iteration

	quoteID OrderID

	shadowBook *deque.Deque[OperationID]
	throttle   *deque.Deque[OperationID]
}

// New creates an Engine with its quote entity already allocated, per the
// spec's "created at startup" requirement.
func New(cfg Config, log *logging.Logger) *Engine {
	e := &Engine{
		cfg:        cfg,
		log:        log,
		orders:     make(map[OrderID]*Order),
		operations: make(map[OperationID]*Operation),
		shadowBook: deque.New[OperationID](),
		throttle:   deque.New[OperationID](),
	}
	e.initQuote()
	return e
}

func (e *Engine) initQuote() {
	quote := &Order{
		ID:      newOrderID(),
		IsQuote: true,
		State:   PriorToMarket,
	}
	e.orders[quote.ID] = quote
	e.orderSeq = append(e.orderSeq, quote.ID)
	e.quoteID = quote.ID
}

// QuoteID returns the process-wide quote entity's identifier.
func (e *Engine) QuoteID() OrderID {
	return e.quoteID
}

func (e *Engine) order(id OrderID) (*Order, error) {
	o, ok := e.orders[id]
	if !ok {
		return nil, errOrderNotFound
	}
	return o, nil
}

// Order exposes a read-only lookup of an order by identifier.
func (e *Engine) Order(id OrderID) (*Order, error) {
	return e.order(id)
}

func (e *Engine) operation(id OperationID) (*Operation, error) {
	op, ok := e.operations[id]
	if !ok {
		return nil, errOperationNotFound
	}
	return op, nil
}

// Operation exposes a read-only lookup of an operation by identifier.
func (e *Engine) Operation(id OperationID) (*Operation, error) {
	return e.operation(id)
}

// allocateOrder creates a new non-quote order in PriorToMarket state.
func (e *Engine) allocateOrder(side Side, price, qty int) *Order {
	o := &Order{
		ID:    newOrderID(),
		Price: price,
		Qty:   qty,
		Side:  side,
		State: PriorToMarket,
	}
	e.orders[o.ID] = o
	e.orderSeq = append(e.orderSeq, o.ID)
	return o
}

// allocateOperation creates a new operation owned by order, appends it to
// the order's history, and returns it. The caller fills in Type/Payload
// and, where relevant, PreviousOperation.
func (e *Engine) allocateOperation(order *Order) *Operation {
	op := &Operation{
		ID:      newOperationID(),
		OrderID: order.ID,
		State:   Initial,
	}
	e.operations[op.ID] = op
	order.History = append(order.History, op.ID)
	return op
}

// discardOperation removes an operation that was rejected before ever
// being queued or dispatched: it is dropped from the arena and from its
// owning order's history.
func (e *Engine) discardOperation(order *Order, opID OperationID) {
	delete(e.operations, opID)
	order.History = removeID(order.History, opID)
}

// discardOrder removes an order (and, transitively, all of its owned
// operations) from the arena entirely. Only valid for orders that never
// reached the market (a rejected InsertOrder and the DeleteOrder fast path).
func (e *Engine) discardOrder(order *Order) {
	for _, opID := range order.History {
		delete(e.operations, opID)
	}
	delete(e.orders, order.ID)
	e.orderSeq = removeID(e.orderSeq, order.ID)
}

func removeID[T comparable](ids []T, target T) []T {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// GC applies the garbage-collection policy: once live-order count exceeds
// the configured threshold, every Finalised order is removed outright.
func (e *Engine) GC() {
	if len(e.orders) <= e.cfg.OrderGCThreshold {
		return
	}

	var kept []OrderID
	for _, id := range e.orderSeq {
		o := e.orders[id]
		if o.State == Finalised {
			for _, opID := range o.History {
				delete(e.operations, opID)
			}
			delete(e.orders, id)
			continue
		}
		kept = append(kept, id)
	}
	e.orderSeq = kept
	e.log.Info("cleared finalised orders")
}

// GCQuoteHistory truncates the quote's operation history once it has grown
// past the configured threshold and the check-index entry has already been
// acked (meaning everything before it is historically resolved).
func (e *Engine) GCQuoteHistory() {
	quote := e.orders[e.quoteID]
	if len(quote.History) <= e.cfg.QuoteHistoryThreshold {
		return
	}

	checkIdx := e.cfg.QuoteHistoryCheckIndex - 1 // 1-based -> 0-based
	if checkIdx < 0 || checkIdx >= len(quote.History) {
		return
	}
	checkOp := e.operations[quote.History[checkIdx]]
	if checkOp.State != Acked {
		return
	}

	trim := e.cfg.QuoteHistoryTrim
	if trim > len(quote.History) {
		trim = len(quote.History)
	}
	for _, opID := range quote.History[:trim] {
		delete(e.operations, opID)
	}
	quote.History = quote.History[trim:]
	e.log.Info("trimmed quote history")
}
