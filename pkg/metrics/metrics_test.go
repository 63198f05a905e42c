package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

func uniformImage(width, height int, c core.Vec3) [][]core.Vec3 {
	img := make([][]core.Vec3, height)
	for y := range img {
		img[y] = make([]core.Vec3, width)
		for x := range img[y] {
			img[y][x] = c
		}
	}
	return img
}

func TestPSNR_IdenticalImages(t *testing.T) {
	img := uniformImage(4, 3, core.NewVec3(0.3, 0.6, 0.9))
	psnr, err := PSNR(img, img)
	require.NoError(t, err)
	require.True(t, math.IsInf(psnr, 1))
}

func TestPSNR_KnownError(t *testing.T) {
	// A uniform difference of 0.1 in every channel gives mse = 0.01,
	// so psnr = -10*log10(0.01) = 20 dB
	pred := uniformImage(4, 4, core.NewVec3(0.5, 0.5, 0.5))
	target := uniformImage(4, 4, core.NewVec3(0.6, 0.6, 0.6))

	psnr, err := PSNR(pred, target)
	require.NoError(t, err)
	require.InDelta(t, 20.0, psnr, 1e-9)
}

func TestPSNR_MoreErrorLowerScore(t *testing.T) {
	target := uniformImage(4, 4, core.NewVec3(0.5, 0.5, 0.5))
	near := uniformImage(4, 4, core.NewVec3(0.55, 0.55, 0.55))
	far := uniformImage(4, 4, core.NewVec3(0.9, 0.9, 0.9))

	psnrNear, err := PSNR(near, target)
	require.NoError(t, err)
	psnrFar, err := PSNR(far, target)
	require.NoError(t, err)
	require.Greater(t, psnrNear, psnrFar)
}

func TestSSIM_IdenticalImages(t *testing.T) {
	img := make([][]core.Vec3, 4)
	for y := range img {
		img[y] = make([]core.Vec3, 4)
		for x := range img[y] {
			img[y][x] = core.NewVec3(float64(x)/4, float64(y)/4, 0.5)
		}
	}

	ssim, err := SSIM(img, img)
	require.NoError(t, err)
	require.InDelta(t, 1.0, ssim, 1e-9)
}

func TestSSIM_DissimilarImagesScoreLower(t *testing.T) {
	gradient := make([][]core.Vec3, 4)
	inverse := make([][]core.Vec3, 4)
	for y := range gradient {
		gradient[y] = make([]core.Vec3, 4)
		inverse[y] = make([]core.Vec3, 4)
		for x := range gradient[y] {
			v := float64(y*4+x) / 15
			gradient[y][x] = core.NewVec3(v, v, v)
			inverse[y][x] = core.NewVec3(1-v, 1-v, 1-v)
		}
	}

	same, err := SSIM(gradient, gradient)
	require.NoError(t, err)
	different, err := SSIM(gradient, inverse)
	require.NoError(t, err)
	require.Greater(t, same, different)
}

func TestMetrics_ShapeErrors(t *testing.T) {
	img := uniformImage(4, 4, core.ColorWhite)
	smaller := uniformImage(4, 3, core.ColorWhite)

	_, err := PSNR(img, smaller)
	require.Error(t, err)
	_, err = SSIM(img, smaller)
	require.Error(t, err)
	_, err = PSNR(nil, nil)
	require.Error(t, err)
}
