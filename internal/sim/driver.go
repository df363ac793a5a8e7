package sim

import (
	"mm-oms-core/internal/engine"
	"mm-oms-core/internal/logging"
	"mm-oms-core/internal/randsrc"
)

// Driver wires a Generator to an Engine and runs the generate-drain-ack
// loop the reference program's main() ran forever; Driver instead runs a
// bounded number of ticks, so it is usable from both the CLI and tests.
type Driver struct {
	eng *engine.Engine
	gen *Generator
	src randsrc.Source
	log *logging.Logger
	p   Params
}

// NewDriver builds a Driver over eng, drawing from src and logging to log.
func NewDriver(eng *engine.Engine, src randsrc.Source, log *logging.Logger, p Params) *Driver {
	return &Driver{
		eng: eng,
		gen: NewGenerator(eng, src, log, p),
		src: src,
		log: log,
		p:   p,
	}
}

// Tick performs one iteration of the loop: generate new instructions,
// drain a random-sized window from the throttle queue, acknowledge a
// random number of in-flight operations, then run the two GC passes.
// Ported from the reference program's main() loop body.
func (d *Driver) Tick() {
	d.gen.GenerateOrderOperations()

	window := DrainWindow(d.src, d.p.MaxOperationsToClearFromQueue)
	d.eng.ProcessThrottleQueue(window)

	numToAck := NumToAck(d.src, d.p.MaxOperationsToAcknowledge)
	d.eng.AckOperations(numToAck)

	d.eng.GC()
	d.eng.GCQuoteHistory()
}

// Run performs n ticks in sequence.
func (d *Driver) Run(n int) {
	for i := 0; i < n; i++ {
		d.Tick()
	}
}
