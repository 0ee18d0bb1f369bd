package router

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// RouteItem is one hop of a route. Amount is the side fixed by the quote
// direction, Quote is the side the edge solved for: selling fixes the hop
// input and solves the output, buying fixes the output and solves the
// required input.
type RouteItem struct {
	Edge   EdgeHandle
	Amount *big.Int
	Quote  *big.Int
}

// Route is an ordered chain of hops. Items are always stored origin to
// destination regardless of the direction the route was discovered in.
type Route struct {
	Items     []RouteItem
	Amount    *big.Int
	Direction models.Direction
}

func NewRoute(items []RouteItem, amount *big.Int, direction models.Direction) *Route {
	return &Route{Items: items, Amount: amount, Direction: direction}
}

// ByAddingNext grows the route in discovery order: selling walks origin to
// destination and appends, buying walks destination to origin and
// prepends. Either way the item list stays origin-ordered.
func (r *Route) ByAddingNext(item RouteItem) *Route {
	items := make([]RouteItem, 0, len(r.Items)+1)
	if r.Direction == models.DirectionBuy {
		items = append(items, item)
		items = append(items, r.Items...)
	} else {
		items = append(items, r.Items...)
		items = append(items, item)
	}
	return &Route{Items: items, Amount: r.Amount, Direction: r.Direction}
}

// AmountIn is what the user pays into the route.
func (r *Route) AmountIn() *big.Int {
	if len(r.Items) == 0 {
		return big.NewInt(0)
	}
	first := r.Items[0]
	if r.Direction == models.DirectionBuy {
		return first.Quote
	}
	return first.Amount
}

// AmountOut is what the route delivers.
func (r *Route) AmountOut() *big.Int {
	if len(r.Items) == 0 {
		return big.NewInt(0)
	}
	last := r.Items[len(r.Items)-1]
	if r.Direction == models.DirectionBuy {
		return last.Amount
	}
	return last.Quote
}

// Quote is the solved side of the whole route: the output when selling,
// the required input when buying.
func (r *Route) Quote() *big.Int {
	if r.Direction == models.DirectionBuy {
		return r.AmountIn()
	}
	return r.AmountOut()
}

// AssetIn returns the route's input asset.
func (r *Route) AssetIn() models.ChainAssetID {
	if len(r.Items) == 0 {
		return models.ChainAssetID{}
	}
	return r.Items[0].Edge.Origin()
}

// AssetOut returns the route's output asset.
func (r *Route) AssetOut() models.ChainAssetID {
	if len(r.Items) == 0 {
		return models.ChainAssetID{}
	}
	return r.Items[len(r.Items)-1].Edge.Destination()
}

// HopAmounts resolves hop index's in/out amounts from the
// direction-dependent fixed and solved sides.
func (r *Route) HopAmounts(index int) (amountIn, amountOut *big.Int) {
	item := r.Items[index]
	if r.Direction == models.DirectionBuy {
		return item.Quote, item.Amount
	}
	return item.Amount, item.Quote
}

// TotalWeight sums the routing weights of the route's edges.
func (r *Route) TotalWeight() int {
	total := 0
	for _, item := range r.Items {
		total += item.Edge.Weight()
	}
	return total
}

// Matches re-validates a previously shown route against a freshly
// recomputed one. The inequality is one-sided on purpose: slippage guards
// the user against the route getting worse, a route that got better always
// passes. Comparisons at the boundary are non-strict.
func (r *Route) Matches(other *Route, slippage decimal.Decimal) bool {
	if other == nil || other.Direction != r.Direction {
		return false
	}

	if r.Direction == models.DirectionBuy {
		in := decimal.NewFromBigInt(r.AmountIn(), 0)
		bound := in.Add(in.Mul(slippage))
		return decimal.NewFromBigInt(other.AmountIn(), 0).Cmp(bound) <= 0
	}

	out := decimal.NewFromBigInt(r.AmountOut(), 0)
	bound := out.Sub(out.Mul(slippage))
	return decimal.NewFromBigInt(other.AmountOut(), 0).Cmp(bound) >= 0
}

// ExchangeQuote is what a route request returns: the priced route, one
// display summary per hop, per-hop execution-time estimates, and (when a
// fee estimator is wired) the aggregated fee.
type ExchangeQuote struct {
	Route          *Route
	MetaOperations []*MetaOperation
	ExecutionTimes []time.Duration
	Fee            *fees.ExchangeFee
}

// TotalExecutionTimeFrom sums the execution-time estimates from the given
// hop onward, used to re-estimate remaining wait time mid-execution.
func (q *ExchangeQuote) TotalExecutionTimeFrom(index int) time.Duration {
	if index < 0 {
		index = 0
	}
	var total time.Duration
	for i := index; i < len(q.ExecutionTimes); i++ {
		total += q.ExecutionTimes[i]
	}
	return total
}
