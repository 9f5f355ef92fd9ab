package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// PlotEquity renders the realized equity curve to a standalone HTML chart.
func PlotEquity(curve []float64, path string) error {
	if len(curve) == 0 {
		return fmt.Errorf("equity curve is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Realized Equity Curve",
			Subtitle: "cumulative P&L per closed trade",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	xAxis := make([]string, len(curve))
	series := make([]opts.LineData, len(curve))
	for i, v := range curve {
		xAxis[i] = strconv.Itoa(i)
		series[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xAxis).AddSeries("equity", series,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}
