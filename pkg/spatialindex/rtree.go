package spatialindex

import (
	"math"
	"sort"

	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

type Rtree struct {
	tr    *rtree.RTreeG[datastructure.SegmentID]
	graph *datastructure.Graph
}

// SegmentHit. segment found near a query point
type SegmentHit struct {
	segment  *datastructure.Segment
	distance float64 // meter
}

func (h SegmentHit) GetSegment() *datastructure.Segment {
	return h.segment
}

func (h SegmentHit) GetDistance() float64 {
	return h.distance
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[datastructure.SegmentID]
	return &Rtree{
		tr: &tr,
	}
}

// Build. indexes the bounding box of every segment of graph
func (rt *Rtree) Build(graph *datastructure.Graph, log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.Int("segments", graph.NumberOfSegments()))
	rt.graph = graph
	graph.ForSegments(func(s *datastructure.Segment) {
		minLat, minLon := math.Inf(1), math.Inf(1)
		maxLat, maxLon := math.Inf(-1), math.Inf(-1)
		for _, c := range s.GetGeometry() {
			minLat, maxLat = math.Min(minLat, c.Lat), math.Max(maxLat, c.Lat)
			minLon, maxLon = math.Min(minLon, c.Lon), math.Max(maxLon, c.Lon)
		}
		rt.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, s.GetID())
	})

	log.Info("R-tree spatial index built.")
}

// SearchWithinRadius. segments whose geometry lies within radius (meter) of (qLat, qLon),
// nearest first.
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []SegmentHit {
	radiusKm := radius / 1000
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radiusKm*math.Sqrt2)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radiusKm*math.Sqrt2)

	q := geo.NewCoordinate(qLat, qLon)
	results := make([]SegmentHit, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, id datastructure.SegmentID) bool {
			s, err := rt.graph.GetSegment(id)
			if err != nil {
				return true
			}
			d := geo.PointLineDistance(q, s.GetGeometry())
			if d <= radius {
				results = append(results, SegmentHit{segment: s, distance: d})
			}
			return true
		})

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].distance != results[j].distance {
			return results[i].distance < results[j].distance
		}
		return results[i].segment.GetID() < results[j].segment.GetID()
	})
	return results
}
