package router

import (
	"sync/atomic"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// AssetSet is a set of asset nodes.
type AssetSet map[models.ChainAssetID]struct{}

func (s AssetSet) Has(asset models.ChainAssetID) bool {
	_, ok := s[asset]
	return ok
}

// ReachabilityIndex precomputes one-step adjacency over the edge set so
// feasibility questions are O(1) set lookups instead of graph walks.
type ReachabilityIndex struct {
	out map[models.ChainAssetID]AssetSet
	in  map[models.ChainAssetID]AssetSet

	allOut AssetSet
}

// BuildReachabilityIndex indexes the given edges. The index is immutable
// after construction; configuration changes rebuild it wholesale.
func BuildReachabilityIndex(edges []EdgeHandle) *ReachabilityIndex {
	index := &ReachabilityIndex{
		out:    make(map[models.ChainAssetID]AssetSet),
		in:     make(map[models.ChainAssetID]AssetSet),
		allOut: make(AssetSet),
	}

	for _, edge := range edges {
		origin := edge.Origin()
		destination := edge.Destination()

		if index.out[origin] == nil {
			index.out[origin] = make(AssetSet)
		}
		index.out[origin][destination] = struct{}{}

		if index.in[destination] == nil {
			index.in[destination] = make(AssetSet)
		}
		index.in[destination][origin] = struct{}{}

		index.allOut[destination] = struct{}{}
	}

	return index
}

// AssetsOut returns the assets directly reachable from the given asset.
func (ix *ReachabilityIndex) AssetsOut(asset models.ChainAssetID) AssetSet {
	return ix.out[asset]
}

// AssetsIn returns the assets that can directly reach the given asset.
func (ix *ReachabilityIndex) AssetsIn(asset models.ChainAssetID) AssetSet {
	return ix.in[asset]
}

// AllAssetsOut returns every asset that is the destination of some edge.
func (ix *ReachabilityIndex) AllAssetsOut() AssetSet {
	return ix.allOut
}

// CanReach reports whether destination is reachable from origin within
// maxHops edge traversals.
func (ix *ReachabilityIndex) CanReach(origin, destination models.ChainAssetID, maxHops int) bool {
	frontier := AssetSet{origin: {}}
	visited := AssetSet{origin: {}}

	for hop := 0; hop < maxHops; hop++ {
		next := make(AssetSet)
		for asset := range frontier {
			for reachable := range ix.out[asset] {
				if reachable == destination {
					return true
				}
				if !visited.Has(reachable) {
					visited[reachable] = struct{}{}
					next[reachable] = struct{}{}
				}
			}
		}
		if len(next) == 0 {
			return false
		}
		frontier = next
	}

	return false
}

// reachableTo collects every asset from which destination is reachable
// within maxHops, walking the inbound adjacency. The pathfinder uses it to
// restrict the forward search to nodes that can still reach the target.
func (ix *ReachabilityIndex) reachableTo(destination models.ChainAssetID, maxHops int) AssetSet {
	reached := AssetSet{destination: {}}
	frontier := AssetSet{destination: {}}

	for hop := 0; hop < maxHops; hop++ {
		next := make(AssetSet)
		for asset := range frontier {
			for source := range ix.in[asset] {
				if !reached.Has(source) {
					reached[source] = struct{}{}
					next[source] = struct{}{}
				}
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	return reached
}

// GraphSnapshot is one consistent view of the edge set: the edges, their
// adjacency by origin, and the reachability index built from them.
type GraphSnapshot struct {
	Edges []EdgeHandle
	Index *ReachabilityIndex

	byOrigin map[models.ChainAssetID][]EdgeHandle
}

func NewGraphSnapshot(edges []EdgeHandle) *GraphSnapshot {
	byOrigin := make(map[models.ChainAssetID][]EdgeHandle)
	for _, edge := range edges {
		byOrigin[edge.Origin()] = append(byOrigin[edge.Origin()], edge)
	}
	return &GraphSnapshot{
		Edges:    edges,
		Index:    BuildReachabilityIndex(edges),
		byOrigin: byOrigin,
	}
}

// EdgesFrom returns the edges whose origin is the given asset.
func (s *GraphSnapshot) EdgesFrom(asset models.ChainAssetID) []EdgeHandle {
	return s.byOrigin[asset]
}

// Graph publishes edge-set snapshots atomically. Readers pin the snapshot
// they started with; a registry rebuild swaps in a fresh one without
// blocking in-flight requests.
type Graph struct {
	snapshot atomic.Pointer[GraphSnapshot]
}

func NewGraph(edges []EdgeHandle) *Graph {
	graph := &Graph{}
	graph.Publish(edges)
	return graph
}

func (g *Graph) Publish(edges []EdgeHandle) {
	g.snapshot.Store(NewGraphSnapshot(edges))
}

func (g *Graph) Snapshot() *GraphSnapshot {
	return g.snapshot.Load()
}
