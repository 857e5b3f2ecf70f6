package graphio

import (
	"os"
	"sort"
	"strings"
	"time"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

var formOfWays = map[string]da.FormOfWay{
	"motorway":             da.FOW_MOTORWAY,
	"multiple_carriageway": da.FOW_MULTIPLE_CARRIAGEWAY,
	"single_carriageway":   da.FOW_SINGLE_CARRIAGEWAY,
	"roundabout":           da.FOW_ROUNDABOUT,
	"traffic_square":       da.FOW_TRAFFIC_SQUARE,
	"sliproad":             da.FOW_SLIPROAD,
	"service":              da.FOW_SERVICE,
	"walkway":              da.FOW_WALKWAY,
	"bikeway":              da.FOW_BIKEWAY,
	"other":                da.FOW_OTHER,
}

func toCoordinates(ls orb.LineString) []geo.Coordinate {
	coords := make([]geo.Coordinate, len(ls))
	for i, p := range ls {
		coords[i] = geo.NewCoordinate(p.Lat(), p.Lon())
	}
	return coords
}

func accessOf(props geojson.Properties) da.Access {
	acc := da.ACCESS_NONE
	if props.MustBool("car", true) {
		acc |= da.ACCESS_CAR
	}
	if props.MustBool("bike", true) {
		acc |= da.ACCESS_BIKE
	}
	if props.MustBool("foot", true) {
		acc |= da.ACCESS_PEDESTRIAN
	}
	return acc
}

// SegmentFromFeature. road segment of a LineString feature. properties: id, start_node, end_node
// (required), frc, form_of_way, oneway ("yes", "-1", "no"), maxspeed, lanes, car/bike/foot (booleans).
func SegmentFromFeature(f *geojson.Feature) (*da.Segment, error) {
	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "segment geometry must be a LineString, got %s",
			f.Geometry.GeoJSONType())
	}
	props := f.Properties
	for _, key := range []string{"id", "start_node", "end_node"} {
		if _, ok := props[key]; !ok {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "segment feature without %s", key)
		}
	}

	seg := da.NewSegment(da.SegmentID(props.MustInt("id")), da.NodeID(props.MustInt("start_node")),
		da.NodeID(props.MustInt("end_node")), toCoordinates(ls))
	seg.SetFrc(da.FRC(props.MustInt("frc", int(da.FRC_4))))
	if fow, ok := formOfWays[strings.ToLower(props.MustString("form_of_way", ""))]; ok {
		seg.SetFormOfWay(fow)
	}
	speed := props.MustFloat64("maxspeed", 50)
	seg.SetSpeed(speed, speed)
	lanes := uint8(props.MustInt("lanes", 1))
	seg.SetLanes(lanes, lanes)

	acc := accessOf(props)
	tow, bkw := acc, acc
	switch props.MustString("oneway", "no") {
	case "yes", "true", "1":
		bkw &^= da.ACCESS_CAR
	case "-1", "reverse":
		tow &^= da.ACCESS_CAR
	}
	seg.SetAccess(tow, bkw)
	return seg, nil
}

// ReadGraph. road graph of a GeoJSON FeatureCollection of LineString segments
func ReadGraph(path string, log *zap.Logger) (*da.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "failed to read graph file %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid geojson in %s", path)
	}

	g := da.NewGraph()
	for _, f := range fc.Features {
		seg, err := SegmentFromFeature(f)
		if err != nil {
			return nil, err
		}
		if err := g.AddSegment(seg); err != nil {
			return nil, err
		}
	}
	log.Info("Road graph loaded", zap.String("path", path), zap.Int("segments", g.NumberOfSegments()),
		zap.Int("nodes", g.NumberOfNodes()))
	return g, nil
}

type rawTrack struct {
	id     int64
	points []*da.TrackPoint
}

// ReadTracks. tracks of a GeoJSON FeatureCollection of Point features with the properties track_id,
// time (RFC3339) and optionally id and z. tracks are returned ordered by id.
func ReadTracks(path string, log *zap.Logger) ([]*da.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "failed to read track file %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid geojson in %s", path)
	}

	byID := make(map[int64]*rawTrack)
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "track feature %d is not a Point", i)
		}
		ts, err := time.Parse(time.RFC3339Nano, f.Properties.MustString("time", ""))
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "track feature %d has an invalid time", i)
		}
		trackID := int64(f.Properties.MustInt("track_id", 0))
		rt, ok := byID[trackID]
		if !ok {
			rt = &rawTrack{id: trackID}
			byID[trackID] = rt
		}
		rt.points = append(rt.points, da.NewTrackPoint(int64(f.Properties.MustInt("id", i)), ts, p.Lat(), p.Lon(),
			f.Properties.MustFloat64("z", 0)))
	}

	tracks := make([]*da.Track, 0, len(byID))
	for _, rt := range byID {
		tracks = append(tracks, da.NewTrack(rt.id, rt.points))
	}
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].GetID() < tracks[j].GetID()
	})
	log.Info("Tracks loaded", zap.String("path", path), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

// BranchFeature. matched geometry of branch as a LineString feature
func BranchFeature(trackID int64, rank int, branch *da.MatchedBranch) *geojson.Feature {
	coords := branch.Geometry()
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.GetLon(), c.GetLat()}
	}
	f := geojson.NewFeature(ls)
	ids := make([]int64, 0, branch.Len())
	for _, id := range branch.SegmentIDs() {
		ids = append(ids, int64(id))
	}
	f.Properties["track_id"] = trackID
	f.Properties["rank"] = rank
	f.Properties["matched_factor"] = branch.GetMatchedFactor()
	f.Properties["matched_points"] = branch.GetMatchedPoints()
	f.Properties["u_turns"] = branch.GetNrOfUTurns()
	f.Properties["segments"] = ids
	return f
}
