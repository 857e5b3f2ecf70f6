package graphio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/geo"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const graphJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[110.36, -7.78], [110.37, -7.78]]},
     "properties": {"id": 10, "start_node": 1, "end_node": 2, "frc": 2, "form_of_way": "motorway",
                    "oneway": "yes", "maxspeed": 80, "lanes": 2, "foot": false}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[110.37, -7.78], [110.37, -7.77], [110.38, -7.77]]},
     "properties": {"id": 11, "start_node": 2, "end_node": 3, "form_of_way": "Roundabout"}}
  ]
}`

const tracksJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.371, -7.779]},
     "properties": {"track_id": 2, "time": "2024-01-01T08:00:10Z", "id": 21}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.360, -7.780]},
     "properties": {"track_id": 1, "time": "2024-01-01T08:00:05Z", "id": 12}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.365, -7.780]},
     "properties": {"track_id": 1, "time": "2024-01-01T08:00:00Z", "id": 11, "z": 12.5}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.372, -7.779]},
     "properties": {"track_id": 2, "time": "2024-01-01T08:00:20Z", "id": 22}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadGraph(t *testing.T) {
	g, err := ReadGraph(writeFile(t, "graph.geojson", graphJSON), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumberOfSegments())
	assert.Equal(t, 3, g.NumberOfNodes())

	motorway, err := g.GetSegment(10)
	require.NoError(t, err)
	assert.Equal(t, da.FRC_2, motorway.GetFrc())
	assert.Equal(t, da.FOW_MOTORWAY, motorway.GetFormOfWay())
	assert.True(t, da.CanTraverse(motorway, true, da.MODE_CAR))
	assert.False(t, da.CanTraverse(motorway, false, da.MODE_CAR), "oneway")
	assert.False(t, da.CanTraverse(motorway, true, da.MODE_PEDESTRIAN), "no foot access")
	assert.InDelta(t, -7.78, motorway.GetGeometry()[0].GetLat(), 1e-9)
	assert.InDelta(t, 110.36, motorway.GetGeometry()[0].GetLon(), 1e-9)

	roundabout, err := g.GetSegment(11)
	require.NoError(t, err)
	assert.True(t, roundabout.IsRoundabout())
	assert.Equal(t, da.FRC_4, roundabout.GetFrc())
	assert.Len(t, roundabout.GetGeometry(), 3)
	assert.Equal(t, []*da.Segment{motorway, roundabout}, g.NeighborSegments(2))
}

func TestReadGraphErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: `{"type": "FeatureCollection", "features": [`},
		{name: "point geometry", content: `{"type": "FeatureCollection", "features": [{"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [110.36, -7.78]},
			"properties": {"id": 1, "start_node": 1, "end_node": 2}}]}`},
		{name: "missing end node", content: `{"type": "FeatureCollection", "features": [{"type": "Feature",
			"geometry": {"type": "LineString", "coordinates": [[110.36, -7.78], [110.37, -7.78]]},
			"properties": {"id": 1, "start_node": 1}}]}`},
		{name: "duplicate id", content: `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[110.36, -7.78], [110.37, -7.78]]},
			 "properties": {"id": 1, "start_node": 1, "end_node": 2}},
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[110.37, -7.78], [110.38, -7.78]]},
			 "properties": {"id": 1, "start_node": 2, "end_node": 3}}]}`},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(writeFile(t, "graph.geojson", tt.content), zap.NewNop())
			assert.True(t, errors.Is(err, util.ErrBadParamInput))
		})
	}

	_, err := ReadGraph(filepath.Join(t.TempDir(), "missing.geojson"), zap.NewNop())
	assert.True(t, errors.Is(err, util.ErrBadParamInput))
}

func TestSegmentFromFeatureReverseOneWay(t *testing.T) {
	f := geojson.NewFeature(orb.LineString{{110.36, -7.78}, {110.37, -7.78}})
	f.Properties["id"] = 3
	f.Properties["start_node"] = 1
	f.Properties["end_node"] = 2
	f.Properties["oneway"] = "-1"
	f.Properties["maxspeed"] = 30.0

	seg, err := SegmentFromFeature(f)
	require.NoError(t, err)
	assert.False(t, da.CanTraverse(seg, true, da.MODE_CAR))
	assert.True(t, da.CanTraverse(seg, false, da.MODE_CAR))
	assert.True(t, da.CanTraverse(seg, true, da.MODE_BIKE))
	assert.InDelta(t, seg.GetLength()/(30/3.6), seg.TravelTime(true), 1e-9)
}

func TestReadTracks(t *testing.T) {
	tracks, err := ReadTracks(writeFile(t, "tracks.geojson", tracksJSON), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	first := tracks[0]
	assert.Equal(t, int64(1), first.GetID())
	require.Equal(t, 2, first.Len())
	assert.Equal(t, int64(11), first.GetPoint(0).GetID(), "points are ordered by time")
	assert.InDelta(t, 12.5, first.GetPoint(0).Z(), 1e-9)
	assert.InDelta(t, 110.365, first.GetPoint(0).Lon(), 1e-9)

	assert.Equal(t, int64(2), tracks[1].GetID())
	assert.Equal(t, 2, tracks[1].Len())

	_, err = ReadTracks(writeFile(t, "bad.geojson", `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.36, -7.78]},
		 "properties": {"track_id": 1, "time": "yesterday"}}]}`), zap.NewNop())
	assert.True(t, errors.Is(err, util.ErrBadParamInput))
}

func TestBranchFeature(t *testing.T) {
	seg := da.NewSegment(4, 1, 2, []geo.Coordinate{geo.NewCoordinate(-7.78, 110.36), geo.NewCoordinate(-7.78, 110.37)})
	ms := da.NewMatchedWaySegment(seg, da.START_TO_END, 30)
	ms.SetWindow(0, []float64{1, 2})
	b := da.NewMatchedBranch()
	b.AddSegment(ms)
	b.SetMatchedFactor(1.5)

	f := BranchFeature(9, 0, b)
	ls, ok := f.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{110.36, -7.78}, {110.37, -7.78}}, ls)
	assert.Equal(t, int64(9), f.Properties["track_id"])
	assert.Equal(t, 0, f.Properties["rank"])
	assert.Equal(t, 1.5, f.Properties["matched_factor"])
	assert.Equal(t, 2, f.Properties["matched_points"])
	assert.Equal(t, []int64{4}, f.Properties["segments"])
}
