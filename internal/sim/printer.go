package sim

import (
	"fmt"
	"io"

	"mm-oms-core/internal/engine"
)

// PrintOrderBook writes a price ladder from upperPrice down to 1, one line
// per level, showing resting bid/ask quantity at that price. This is the
// opt-in trace half of the reference program's PrintOrderBook: a level
// holding both bid and ask quantity is marked IN CROSS, and once the ladder
// is written it runs engine.AssertBookNotCrossed, which terminates the
// process on a crossed book.
func PrintOrderBook(w io.Writer, eng *engine.Engine, upperPrice int) {
	levels := eng.AggregateByPrice()

	for price := upperPrice; price >= 1; price-- {
		level, ok := levels[price]
		if !ok {
			fmt.Fprintf(w, "%3d |\n", price)
			continue
		}
		marker := ""
		if level.BidQty > 0 && level.AskQty > 0 {
			marker = " ********* IN CROSS ************"
		}
		fmt.Fprintf(w, "%3d | bid=%d ask=%d%s\n", price, level.BidQty, level.AskQty, marker)
	}
	eng.AssertBookNotCrossed()
}
