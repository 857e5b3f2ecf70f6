package engine

import (
	"context"
	"sync"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/engine/routing"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/spatialindex"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"go.uber.org/zap"
)

// RoadNetwork. one version of a road graph with its spatial index; read-only, shared by all tasks.
type RoadNetwork struct {
	name    string
	version string
	graph   *datastructure.Graph
	rtree   *spatialindex.Rtree
}

func (rn *RoadNetwork) GetName() string {
	return rn.name
}

func (rn *RoadNetwork) GetVersion() string {
	return rn.version
}

func (rn *RoadNetwork) GetGraph() *datastructure.Graph {
	return rn.graph
}

func (rn *RoadNetwork) GetSpatialIndex() *spatialindex.Rtree {
	return rn.rtree
}

func (rn *RoadNetwork) NeighborSegments(node datastructure.NodeID) []*datastructure.Segment {
	return rn.graph.NeighborSegments(node)
}

func (rn *RoadNetwork) GetSegment(id datastructure.SegmentID) (*datastructure.Segment, error) {
	return rn.graph.GetSegment(id)
}

func (rn *RoadNetwork) SearchWithinRadius(lat, lon, radius float64) []spatialindex.SegmentHit {
	return rn.rtree.SearchWithinRadius(lat, lon, radius)
}

func (rn *RoadNetwork) ShortestPath(ctx context.Context, from *datastructure.Segment, exitNodes []datastructure.NodeID,
	to *datastructure.Segment, maxSegments int, mode datastructure.RoutingMode,
	criteria datastructure.RoutingCriteria) ([]routing.PathSegment, error) {
	return routing.NewSegmentDijkstra(rn.graph, mode).ShortestPath(ctx, from, exitNodes, to, maxSegments, criteria)
}

type networkKey struct {
	name    string
	version string
}

// Engine. registry of road networks by graph name and version.
type Engine struct {
	mu       sync.RWMutex
	networks map[networkKey]*RoadNetwork
	log      *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		networks: make(map[networkKey]*RoadNetwork),
		log:      log,
	}
}

// AddGraph. indexes graph and registers it under name and version, replacing an older registration.
func (e *Engine) AddGraph(name, version string, graph *datastructure.Graph) *RoadNetwork {
	bb := graph.GetBoundingBox()
	e.log.Info("Registering road graph", zap.String("name", name), zap.String("version", version),
		zap.Int("segments", graph.NumberOfSegments()),
		zap.Float64s("bbox", []float64{bb.GetMinLat(), bb.GetMinLon(), bb.GetMaxLat(), bb.GetMaxLon()}))

	rtree := spatialindex.NewRtree()
	rtree.Build(graph, e.log)
	rn := &RoadNetwork{
		name:    name,
		version: version,
		graph:   graph,
		rtree:   rtree,
	}

	e.mu.Lock()
	e.networks[networkKey{name: name, version: version}] = rn
	e.mu.Unlock()
	return rn
}

func (e *Engine) GetRoadNetwork(name, version string) (*RoadNetwork, error) {
	e.mu.RLock()
	rn, ok := e.networks[networkKey{name: name, version: version}]
	e.mu.RUnlock()
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrGraphUnavailable, "graph %s version %s does not exist", name, version)
	}
	return rn, nil
}
