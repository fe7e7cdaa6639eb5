package debugview

import (
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var kindColors = map[pointmap.Kind]color.RGBA{
	pointmap.LeftBoundary:  {R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
	pointmap.RightBoundary: {R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	pointmap.Obstacle:      {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	pointmap.LeftMarker:    {R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
	pointmap.RightMarker:   {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

var (
	poseColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	pathColor = color.RGBA{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff}
)

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// renderChart writes an HTML scatter of the view: one series per point kind,
// the planned path and the vehicle pose.
func renderChart(w io.Writer, v View) error {
	minX, maxX, minY, maxY := v.bounds()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "racecore map", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Point map", Subtitle: fmt.Sprintf("cycle=%d points=%d steps=%d", v.Cycle, len(v.Points), v.Trajectory.Steps())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minX, Max: maxX, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minY, Max: maxY, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	groups := v.byKind()
	for _, kind := range pointmap.Kinds {
		pts := groups[kind]
		data := make([]opts.ScatterData, 0, len(pts))
		for _, p := range pts {
			data = append(data, opts.ScatterData{Value: []interface{}{p.Pos.X, p.Pos.Y}})
		}
		style := opts.ScatterChart{SymbolSize: 4}
		if kind.IsMarker() {
			style = opts.ScatterChart{SymbolSize: 10}
		}
		scatter.AddSeries(kind.String(), data,
			charts.WithScatterChartOpts(style),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(kindColors[kind])}),
		)
	}

	path := make([]opts.ScatterData, 0, len(v.Trajectory.Points))
	for _, p := range v.Trajectory.Points {
		path = append(path, opts.ScatterData{Value: []interface{}{p.Pos.X, p.Pos.Y}})
	}
	scatter.AddSeries("trajectory", path,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(pathColor)}),
	)
	scatter.AddSeries("vehicle", []opts.ScatterData{{Value: []interface{}{v.Pose.Pos.X, v.Pose.Pos.Y}}},
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(poseColor)}),
	)
	return scatter.Render(w)
}

// renderPNG writes a static PNG snapshot of the view.
func renderPNG(w io.Writer, v View, size vg.Length) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("cycle %d", v.Cycle)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	groups := v.byKind()
	for _, kind := range pointmap.Kinds {
		pts := groups[kind]
		if len(pts) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt.Pos.X, Y: pt.Pos.Y}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter %s: %w", kind, err)
		}
		s.GlyphStyle.Color = kindColors[kind]
		s.GlyphStyle.Radius = vg.Points(2)
		if kind.IsMarker() {
			s.GlyphStyle.Radius = vg.Points(5)
		}
		p.Add(s)
		p.Legend.Add(kind.String(), s)
	}

	if len(v.Trajectory.Points) >= 2 {
		xys := make(plotter.XYs, len(v.Trajectory.Points))
		for i, pt := range v.Trajectory.Points {
			xys[i] = plotter.XY{X: pt.Pos.X, Y: pt.Pos.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("trajectory: %w", err)
		}
		line.Color = color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("trajectory", line)
	}

	pose, err := plotter.NewScatter(plotter.XYs{{X: v.Pose.Pos.X, Y: v.Pose.Pos.Y}})
	if err != nil {
		return fmt.Errorf("pose: %w", err)
	}
	pose.GlyphStyle.Radius = vg.Points(4)
	p.Add(pose)
	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = v.bounds()

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
