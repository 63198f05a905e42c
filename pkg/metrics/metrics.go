// Package metrics implements image comparison metrics and the event
// sink interface used by evaluation hooks. The sink is injected so the
// core never talks to a process-wide writer.
package metrics

import (
	"fmt"
	"image"
	"math"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// EventWriter receives evaluation events (scalars, images). The zero
// value of evaluation should work with a nil writer; callers inject an
// implementation that logs, records or visualizes.
type EventWriter interface {
	WriteScalar(name, group string, step int, value float64)
	WriteImage(name, group string, step int, img image.Image)
}

// NullWriter discards all events
type NullWriter struct{}

func (NullWriter) WriteScalar(name, group string, step int, value float64) {}
func (NullWriter) WriteImage(name, group string, step int, img image.Image) {}

// SSIM stabilization constants for a data range of 1.0
const (
	ssimC1 = 0.01 * 0.01
	ssimC2 = 0.03 * 0.03
)

// PSNR returns the peak signal-to-noise ratio in decibels between two
// images with values in [0,1]. Identical images return +Inf.
func PSNR(pred, target [][]core.Vec3) (float64, error) {
	if err := checkShapes(pred, target); err != nil {
		return 0, err
	}

	sum := 0.0
	count := 0
	for y := range pred {
		for x := range pred[y] {
			d := pred[y][x].Subtract(target[y][x])
			sum += d.Dot(d)
			count += 3
		}
	}
	mse := sum / float64(count)
	if mse == 0 {
		return math.Inf(1), nil
	}
	return -10 * math.Log10(mse), nil
}

// SSIM returns the structural similarity between two images with values
// in [0,1], computed on luminance with global statistics (one window
// covering the whole image)
func SSIM(pred, target [][]core.Vec3) (float64, error) {
	if err := checkShapes(pred, target); err != nil {
		return 0, err
	}

	n := 0.0
	meanP, meanT := 0.0, 0.0
	for y := range pred {
		for x := range pred[y] {
			meanP += pred[y][x].Luminance()
			meanT += target[y][x].Luminance()
			n++
		}
	}
	meanP /= n
	meanT /= n

	varP, varT, cov := 0.0, 0.0, 0.0
	for y := range pred {
		for x := range pred[y] {
			dp := pred[y][x].Luminance() - meanP
			dt := target[y][x].Luminance() - meanT
			varP += dp * dp
			varT += dt * dt
			cov += dp * dt
		}
	}
	varP /= n
	varT /= n
	cov /= n

	numerator := (2*meanP*meanT + ssimC1) * (2*cov + ssimC2)
	denominator := (meanP*meanP + meanT*meanT + ssimC1) * (varP + varT + ssimC2)
	return numerator / denominator, nil
}

// checkShapes validates that both images are non-empty and congruent
func checkShapes(pred, target [][]core.Vec3) error {
	if len(pred) == 0 || len(pred[0]) == 0 {
		return fmt.Errorf("metrics require a non-empty image")
	}
	if len(pred) != len(target) {
		return fmt.Errorf("image heights do not match: %d vs %d", len(pred), len(target))
	}
	for y := range pred {
		if len(pred[y]) != len(target[y]) {
			return fmt.Errorf("image widths do not match at row %d: %d vs %d", y, len(pred[y]), len(target[y]))
		}
	}
	return nil
}
