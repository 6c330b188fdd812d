// Package visualization renders training diagnostics with gonum/plot.
package visualization

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/recgo/pkg/errors"
)

// LearningCurve plots per-epoch training RMSE (as recorded by
// svd.EpochHistory) against the epoch number and saves it to a file.
// The image format follows the file extension (.png, .svg, .pdf, ...).
func LearningCurve(history []float64, title, filename string) error {
	if len(history) == 0 {
		return errors.NewEmptyInputError("LearningCurve")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "train RMSE"

	pts := make(plotter.XYs, len(history))
	for i, rmse := range history {
		pts[i].X = float64(i)
		pts[i].Y = rmse
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "visualization: failed to build line plot")
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "visualization: failed to save %s", filename)
	}
	return nil
}
