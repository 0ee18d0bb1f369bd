package router

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

var routerLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	routerLog = zerolog.New(out).With().Timestamp().Str("component", "router").Logger()
}

// SetLogger replaces the package logger, used by the service entry point
// to unify log output.
func SetLogger(logger zerolog.Logger) {
	routerLog = logger.With().Str("component", "router").Logger()
}

// TieBreak selects the order of secondary ranking criteria once two routes
// deliver the same quote.
type TieBreak string

const (
	TieBreakWeightThenTime TieBreak = "weight_then_time"
	TieBreakTimeThenWeight TieBreak = "time_then_weight"
)

// PathfinderConfig bounds the search. The depth bound is configuration,
// never user input.
type PathfinderConfig struct {
	MaxHops       int
	MaxQuotePaths int

	// CostCutoffMultiplier discards candidates whose prototype cost
	// exceeds this multiple of the cheapest prototype seen.
	CostCutoffMultiplier decimal.Decimal

	TieBreak TieBreak
}

func (c PathfinderConfig) withDefaults() PathfinderConfig {
	if c.MaxHops <= 0 {
		c.MaxHops = 4
	}
	if c.MaxQuotePaths <= 0 {
		c.MaxQuotePaths = 16
	}
	if c.CostCutoffMultiplier.Sign() <= 0 {
		c.CostCutoffMultiplier = decimal.NewFromInt(3)
	}
	if c.TieBreak == "" {
		c.TieBreak = TieBreakWeightThenTime
	}
	return c
}

// FeeEstimating prices a committed route. The execution package provides
// the implementation; the pathfinder only needs the capability.
type FeeEstimating interface {
	EstimateRouteFee(ctx context.Context, route *Route) (*fees.ExchangeFee, error)
}

// QuoteArgs is one route request.
type QuoteArgs struct {
	AssetIn   models.ChainAssetID
	AssetOut  models.ChainAssetID
	Amount    *big.Int
	Direction models.Direction
}

// Pathfinder discovers, prices and ranks routes over the published edge
// graph. It holds no mutable state of its own; every request pins the
// graph snapshot it starts with.
type Pathfinder struct {
	graph *Graph

	timeEstimator TimeEstimating
	sufficiency   SufficiencyProviding
	utilityAssets UtilityAssetProviding
	feeEstimator  FeeEstimating

	cfg PathfinderConfig
}

func NewPathfinder(
	graph *Graph,
	timeEstimator TimeEstimating,
	sufficiency SufficiencyProviding,
	utilityAssets UtilityAssetProviding,
	cfg PathfinderConfig,
) *Pathfinder {
	return &Pathfinder{
		graph:         graph,
		timeEstimator: timeEstimator,
		sufficiency:   sufficiency,
		utilityAssets: utilityAssets,
		cfg:           cfg.withDefaults(),
	}
}

// WithFeeEstimator wires route-level fee aggregation into returned quotes.
func (p *Pathfinder) WithFeeEstimator(estimator FeeEstimating) *Pathfinder {
	p.feeEstimator = estimator
	return p
}

// candidate is one enumerated path with its prototype-stage estimates and,
// after quoting, its priced route.
type candidate struct {
	path []EdgeHandle

	estimatedCost decimal.Decimal
	estimatedTime time.Duration
	hopTimes      []time.Duration
	totalWeight   int

	route    *Route
	quoteErr error
}

// FindRoute runs the full discovery flow: feasibility check, bounded path
// enumeration, prototype pre-filter, parallel quoting, ranking, policy
// validation, quote assembly.
func (p *Pathfinder) FindRoute(ctx context.Context, args QuoteArgs) (*ExchangeQuote, error) {
	if args.Amount == nil || args.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrNoRoute)
	}
	if args.AssetIn == args.AssetOut {
		return nil, fmt.Errorf("%w: identical input and output asset", ErrNoRoute)
	}

	snapshot := p.graph.Snapshot()
	if snapshot == nil {
		return nil, fmt.Errorf("%w: edge graph not published yet", ErrNoRoute)
	}

	if !snapshot.Index.CanReach(args.AssetIn, args.AssetOut, p.cfg.MaxHops) {
		return nil, fmt.Errorf("%w: %s -> %s within %d hops",
			ErrNoRoute, args.AssetIn, args.AssetOut, p.cfg.MaxHops)
	}

	paths := p.enumeratePaths(snapshot, args.AssetIn, args.AssetOut)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, args.AssetIn, args.AssetOut)
	}

	candidates := p.prefilter(paths)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: every candidate path failed prototype composition",
			ErrRouteNotExecutable)
	}
	if len(candidates) > p.cfg.MaxQuotePaths {
		candidates = candidates[:p.cfg.MaxQuotePaths]
	}

	p.quoteCandidates(ctx, candidates, args)

	priced := make([]*candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.quoteErr != nil {
			routerLog.Debug().
				Err(cand.quoteErr).
				Int("hops", len(cand.path)).
				Msg("candidate route disqualified by quote failure")
			continue
		}
		priced = append(priced, cand)
	}
	if len(priced) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d candidates tried", ErrAllQuotesFailed, len(candidates))
	}

	p.rank(priced, args.Direction)

	for _, cand := range priced {
		quote, err := p.assembleQuote(ctx, cand)
		if err != nil {
			routerLog.Debug().
				Err(err).
				Int("hops", len(cand.path)).
				Msg("ranked route rejected, trying next")
			continue
		}
		routerLog.Info().
			Str("asset_in", args.AssetIn.String()).
			Str("asset_out", args.AssetOut.String()).
			Int("hops", len(cand.path)).
			Str("quote", cand.route.Quote().String()).
			Msg("route selected")
		return quote, nil
	}

	return nil, fmt.Errorf("%w: every priced route failed composition policy", ErrRouteNotExecutable)
}

// enumeratePaths walks the snapshot's adjacency depth-first up to MaxHops,
// restricted to nodes that can still reach the target.
func (p *Pathfinder) enumeratePaths(
	snapshot *GraphSnapshot,
	assetIn, assetOut models.ChainAssetID,
) [][]EdgeHandle {
	canStillReach := snapshot.Index.reachableTo(assetOut, p.cfg.MaxHops)

	var paths [][]EdgeHandle
	visited := AssetSet{assetIn: {}}
	current := make([]EdgeHandle, 0, p.cfg.MaxHops)

	var walk func(from models.ChainAssetID)
	walk = func(from models.ChainAssetID) {
		for _, edge := range snapshot.EdgesFrom(from) {
			destination := edge.Destination()
			if destination == assetOut {
				path := make([]EdgeHandle, len(current)+1)
				copy(path, current)
				path[len(current)] = edge
				paths = append(paths, path)
				continue
			}
			if len(current)+1 >= p.cfg.MaxHops {
				continue
			}
			if visited.Has(destination) || !canStillReach.Has(destination) {
				continue
			}

			visited[destination] = struct{}{}
			current = append(current, edge)
			walk(destination)
			current = current[:len(current)-1]
			delete(visited, destination)
		}
	}
	walk(assetIn)

	return paths
}

// prefilter builds an operation prototype per path, estimates time and
// rough fiat cost, and drops paths that either refuse prototype chaining
// or cost more than the cutoff multiple of the cheapest candidate.
func (p *Pathfinder) prefilter(paths [][]EdgeHandle) []*candidate {
	candidates := make([]*candidate, 0, len(paths))
	cheapest := decimal.Decimal{}
	haveCheapest := false

	for _, path := range paths {
		prototype := path[0].BeginOperationPrototype()
		for _, edge := range path[1:] {
			if prototype == nil {
				break
			}
			prototype = edge.AppendToOperationPrototype(prototype)
		}
		if prototype == nil {
			continue
		}

		cand := &candidate{
			path:          path,
			estimatedCost: prototype.EstimatedCostFiat,
			hopTimes:      make([]time.Duration, 0, len(path)),
		}
		for _, edge := range path {
			cand.totalWeight += edge.Weight()
			hopTime := p.timeEstimator.TotalTime([]string{
				edge.Origin().ChainID, edge.Destination().ChainID,
			})
			cand.hopTimes = append(cand.hopTimes, hopTime)
			cand.estimatedTime += hopTime
		}

		if !haveCheapest || cand.estimatedCost.Cmp(cheapest) < 0 {
			cheapest = cand.estimatedCost
			haveCheapest = true
		}
		candidates = append(candidates, cand)
	}

	if !haveCheapest || cheapest.Sign() <= 0 {
		return candidates
	}

	cutoff := cheapest.Mul(p.cfg.CostCutoffMultiplier)
	kept := candidates[:0]
	for _, cand := range candidates {
		if cand.estimatedCost.Cmp(cutoff) <= 0 {
			kept = append(kept, cand)
		}
	}
	return kept
}

// quoteCandidates prices all candidates concurrently. Hops within one
// route stay strictly sequential since each depends on the previous hop's
// output; independent candidates fan out and the barrier waits for all of
// them before ranking.
func (p *Pathfinder) quoteCandidates(ctx context.Context, candidates []*candidate, args QuoteArgs) {
	var wg sync.WaitGroup
	for _, cand := range candidates {
		wg.Add(1)
		go func(cand *candidate) {
			defer wg.Done()
			cand.route, cand.quoteErr = p.quotePath(ctx, cand.path, args)
		}(cand)
	}
	wg.Wait()
}

// quotePath propagates the amount hop to hop. Selling walks the path
// forward; buying walks it backward, each hop solving for the input the
// previous one must deliver. Routes come out origin-ordered either way.
func (p *Pathfinder) quotePath(ctx context.Context, path []EdgeHandle, args QuoteArgs) (*Route, error) {
	route := NewRoute(nil, args.Amount, args.Direction)
	amount := args.Amount

	if args.Direction == models.DirectionBuy {
		for i := len(path) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			required, err := path[i].Quote(ctx, amount, models.DirectionBuy)
			if err != nil {
				return nil, fmt.Errorf("quote hop %d: %w", i, err)
			}
			route = route.ByAddingNext(RouteItem{Edge: path[i], Amount: amount, Quote: required})
			amount = required
		}
		return route, nil
	}

	for i, edge := range path {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := edge.Quote(ctx, amount, models.DirectionSell)
		if err != nil {
			return nil, fmt.Errorf("quote hop %d: %w", i, err)
		}
		route = route.ByAddingNext(RouteItem{Edge: edge, Amount: amount, Quote: out})
		amount = out
	}
	return route, nil
}

// rank orders priced candidates best-first: highest output when selling,
// lowest input when buying, then the configured tie-break order over total
// weight and estimated execution time.
func (p *Pathfinder) rank(candidates []*candidate, direction models.Direction) {
	better := func(a, b *candidate) bool {
		cmp := a.route.Quote().Cmp(b.route.Quote())
		if cmp != 0 {
			if direction == models.DirectionBuy {
				return cmp < 0
			}
			return cmp > 0
		}

		byWeight := func() (bool, bool) {
			if a.totalWeight != b.totalWeight {
				return a.totalWeight < b.totalWeight, true
			}
			return false, false
		}
		byTime := func() (bool, bool) {
			if a.estimatedTime != b.estimatedTime {
				return a.estimatedTime < b.estimatedTime, true
			}
			return false, false
		}

		first, second := byWeight, byTime
		if p.cfg.TieBreak == TieBreakTimeThenWeight {
			first, second = byTime, byWeight
		}
		if less, decided := first(); decided {
			return less
		}
		if less, decided := second(); decided {
			return less
		}
		return false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return better(candidates[i], candidates[j])
	})
}

// validatePolicy applies the composition-time edge policy flags to every
// intermediate hop of a priced route.
func (p *Pathfinder) validatePolicy(route *Route) error {
	for i := 1; i < len(route.Items); i++ {
		edge := route.Items[i].Edge
		origin := edge.Origin()

		if !edge.CanPayNonNativeFeesInIntermediatePosition() {
			if utility, ok := p.utilityAssets.UtilityAsset(origin.ChainID); ok && origin != utility {
				return fmt.Errorf("%w: hop %d cannot pay fees in %s mid-route",
					ErrRouteNotExecutable, i, origin)
			}
		}

		if edge.RequiresOriginKeepAliveOnIntermediatePosition() {
			predecessor := route.Items[i-1].Edge
			if !p.sufficiency.IsSufficient(origin) && !edge.ShouldIgnoreFeeRequirement(predecessor) {
				return fmt.Errorf("%w: hop %d needs keep-alive on insufficient asset %s",
					ErrRouteNotExecutable, i, origin)
			}
		}
	}
	return nil
}

// assembleQuote validates the candidate's policy flags, builds the
// meta-operation chain and execution times, and attaches the fee when an
// estimator is wired.
func (p *Pathfinder) assembleQuote(ctx context.Context, cand *candidate) (*ExchangeQuote, error) {
	if err := p.validatePolicy(cand.route); err != nil {
		return nil, err
	}

	metaOps, err := buildMetaOperations(cand.route)
	if err != nil {
		return nil, err
	}

	quote := &ExchangeQuote{
		Route:          cand.route,
		MetaOperations: metaOps,
		ExecutionTimes: cand.hopTimes,
	}

	if p.feeEstimator != nil {
		fee, err := p.feeEstimator.EstimateRouteFee(ctx, cand.route)
		if err != nil {
			return nil, fmt.Errorf("estimate route fee: %w", err)
		}
		quote.Fee = fee
	}

	return quote, nil
}

// buildMetaOperations mirrors atomic composition on the display model. A
// nil append fails the route the same way a nil atomic append does.
func buildMetaOperations(route *Route) ([]*MetaOperation, error) {
	metaOps := make([]*MetaOperation, 0, len(route.Items))

	var current *MetaOperation
	for i, item := range route.Items {
		amountIn, amountOut := route.HopAmounts(i)
		if i == 0 {
			current = item.Edge.BeginMetaOperation(amountIn, amountOut)
		} else {
			current = item.Edge.AppendToMetaOperation(current, amountIn, amountOut)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: hop %d refused meta chaining", ErrRouteNotExecutable, i)
		}
		metaOps = append(metaOps, current)
	}

	return metaOps, nil
}
