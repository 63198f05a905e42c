package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Graph renders a bundle of rays into named per-ray tensors.
// Note: declared here to avoid a circular import (implemented by *graph.NeRFGraph).
// Implementations must be safe for concurrent calls: workers render
// disjoint tiles in parallel against one shared graph.
type Graph interface {
	GetOutputs(bundle *core.RayBundle, jitter core.Sampler) (map[string]*mat.Dense, error)
}

// ImageRendererConfig contains configuration for tiled image rendering
type ImageRendererConfig struct {
	TileSize   int     // Size of each square tile in pixels
	NumWorkers int     // Number of parallel workers (0 = use CPU count)
	Jitter     bool    // Whether to jitter rays and samples (off = deterministic)
	Gamma      float64 // Display gamma for the RGB image
}

// DefaultImageRendererConfig returns sensible default values
func DefaultImageRendererConfig() ImageRendererConfig {
	return ImageRendererConfig{
		TileSize:   32,
		NumWorkers: 0,
		Jitter:     false,
		Gamma:      2.0,
	}
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Random *rand.Rand      // Tile-specific random generator for deterministic results
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{
				ID:     tileID,
				Bounds: image.Rect(x0, y0, x1, y1),
				Random: rand.New(rand.NewSource(int64(tileID + 42))), // +42 to avoid seed 0
			})
			tileID++
		}
	}

	return tiles
}

// RenderOutput contains the assembled images of a rendering run
type RenderOutput struct {
	RGB          *image.RGBA // Gamma-corrected fine RGB render
	Depth        [][]float64 // Per-pixel fine expected depth (row-major)
	Accumulation [][]float64 // Per-pixel fine accumulated opacity
	Stats        RenderStats
}

// ImageRenderer renders full images by evaluating a graph tile by tile
// with a pool of parallel workers
type ImageRenderer struct {
	graph  Graph
	camera *Camera
	config ImageRendererConfig
	logger core.Logger
}

// NewImageRenderer creates an image renderer
func NewImageRenderer(graph Graph, camera *Camera, config ImageRendererConfig, logger core.Logger) *ImageRenderer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &ImageRenderer{
		graph:  graph,
		camera: camera,
		config: config,
		logger: logger,
	}
}

// tileResult carries a completed tile back from a worker
type tileResult struct {
	TileID int
	Rays   int
	Err    error
}

// RenderImage renders the camera's full view. Tiles are rendered in
// parallel; each tile writes into non-overlapping regions of the shared
// buffers, so no locking is needed beyond the task/result channels.
func (ir *ImageRenderer) RenderImage(ctx context.Context) (*RenderOutput, error) {
	width, height := ir.camera.config.Width, ir.camera.config.Height
	start := time.Now()

	numWorkers := ir.config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	tiles := NewTileGrid(width, height, ir.config.TileSize)
	ir.logger.Printf("Rendering %dx%d image: %d tiles, %d workers\n", width, height, len(tiles), numWorkers)

	rgbBuf := make([][]core.Vec3, height)
	depthBuf := make([][]float64, height)
	accBuf := make([][]float64, height)
	for y := 0; y < height; y++ {
		rgbBuf[y] = make([]core.Vec3, width)
		depthBuf[y] = make([]float64, width)
		accBuf[y] = make([]float64, width)
	}

	tasks := make(chan *Tile, len(tiles))
	results := make(chan tileResult, len(tiles))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range tasks {
				select {
				case <-ctx.Done():
					results <- tileResult{TileID: tile.ID, Err: ctx.Err()}
					continue
				default:
				}
				rays, err := ir.renderTile(tile, rgbBuf, depthBuf, accBuf)
				results <- tileResult{TileID: tile.ID, Rays: rays, Err: err}
			}
		}()
	}

	for _, tile := range tiles {
		tasks <- tile
	}
	close(tasks)
	wg.Wait()
	close(results)

	stats := RenderStats{TotalTiles: len(tiles)}
	for result := range results {
		if result.Err != nil {
			return nil, result.Err
		}
		stats.TotalRays += result.Rays
	}
	stats.Elapsed = time.Since(start)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, ir.vec3ToColor(rgbBuf[y][x]))
		}
	}

	ir.logger.Printf("Rendered %d rays in %v\n", stats.TotalRays, stats.Elapsed)

	return &RenderOutput{
		RGB:          img,
		Depth:        depthBuf,
		Accumulation: accBuf,
		Stats:        stats,
	}, nil
}

// renderTile evaluates the graph on one tile's rays and writes the
// per-pixel outputs into the shared buffers
func (ir *ImageRenderer) renderTile(tile *Tile, rgbBuf [][]core.Vec3, depthBuf, accBuf [][]float64) (int, error) {
	var jitter core.Sampler
	if ir.config.Jitter {
		jitter = core.NewRandomSampler(tile.Random)
	}

	bundle := ir.camera.RayBundle(tile.Bounds, jitter)
	outputs, err := ir.graph.GetOutputs(bundle, jitter)
	if err != nil {
		return 0, fmt.Errorf("tile %d: %v", tile.ID, err)
	}

	rgb := outputs[core.OutputRGBFine]
	depth := outputs[core.OutputDepthFine]
	acc := outputs[core.OutputAccumulationFine]
	if rgb == nil || depth == nil || acc == nil {
		return 0, fmt.Errorf("tile %d: graph outputs missing fine render", tile.ID)
	}

	ray := 0
	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			rgbBuf[y][x] = core.NewVec3(rgb.At(ray, 0), rgb.At(ray, 1), rgb.At(ray, 2))
			depthBuf[y][x] = depth.At(ray, 0)
			accBuf[y][x] = acc.At(ray, 0)
			ray++
		}
	}
	return ray, nil
}

// vec3ToColor converts a Vec3 color to RGBA with clamping and gamma correction
func (ir *ImageRenderer) vec3ToColor(colorVec core.Vec3) color.RGBA {
	if ir.config.Gamma > 0 {
		colorVec = colorVec.GammaCorrect(ir.config.Gamma)
	}
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}
