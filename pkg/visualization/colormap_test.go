package visualization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyColormap_HueRamp(t *testing.T) {
	img := ApplyColormap([][]float64{{0, 0.5, 1}})
	require.Equal(t, 3, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())

	// 0 maps to blue, 1 to red
	low := img.RGBAAt(0, 0)
	require.Greater(t, low.B, low.R)
	high := img.RGBAAt(2, 0)
	require.Greater(t, high.R, high.B)
}

func TestApplyColormap_ClampsOutOfRange(t *testing.T) {
	img := ApplyColormap([][]float64{{-3, 7}})
	require.Equal(t, ApplyColormap([][]float64{{0, 1}}).RGBAAt(0, 0), img.RGBAAt(0, 0))
	require.Equal(t, ApplyColormap([][]float64{{0, 1}}).RGBAAt(1, 0), img.RGBAAt(1, 0))
}

func TestApplyDepthColormap_EmptyRaysAreBlack(t *testing.T) {
	depth := [][]float64{{0, 4}}
	accumulation := [][]float64{{0, 1}}

	img := ApplyDepthColormap(depth, accumulation, 2, 6)
	empty := img.RGBAAt(0, 0)
	require.Equal(t, uint8(0), empty.R)
	require.Equal(t, uint8(0), empty.G)
	require.Equal(t, uint8(0), empty.B)

	hit := img.RGBAAt(1, 0)
	require.Greater(t, int(hit.R)+int(hit.G)+int(hit.B), 0)
}

func TestApplyColormap_EmptyInput(t *testing.T) {
	img := ApplyColormap(nil)
	require.Equal(t, 0, img.Bounds().Dx())
}
