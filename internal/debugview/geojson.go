package debugview

import (
	geojson "github.com/paulmach/go.geojson"
)

// featureCollection exports the view in the vehicle's local frame:
// coordinates are [x, y] in meters, not longitude and latitude.
func featureCollection(v View) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range v.Points {
		f := geojson.NewPointFeature([]float64{p.Pos.X, p.Pos.Y})
		f.ID = p.ID.String()
		f.SetProperty("kind", p.Kind.String())
		if !p.ExpireAt.IsZero() {
			f.SetProperty("expire_at_unix_nanos", p.ExpireAt.UnixNano())
		}
		fc.AddFeature(f)
	}

	if len(v.Trajectory.Points) >= 2 {
		coords := make([][]float64, len(v.Trajectory.Points))
		curvatures := make([]float64, len(v.Trajectory.Points))
		for i, p := range v.Trajectory.Points {
			coords[i] = []float64{p.Pos.X, p.Pos.Y}
			curvatures[i] = p.Curvature
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("kind", "trajectory")
		f.SetProperty("curvatures", curvatures)
		fc.AddFeature(f)
	}

	pose := geojson.NewPointFeature([]float64{v.Pose.Pos.X, v.Pose.Pos.Y})
	pose.SetProperty("kind", "vehicle")
	pose.SetProperty("heading", v.Pose.Heading)
	pose.SetProperty("cycle", v.Cycle)
	fc.AddFeature(pose)
	return fc
}
