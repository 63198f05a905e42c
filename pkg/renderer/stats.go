package renderer

import "time"

// RenderStats contains statistics about an image rendering run
type RenderStats struct {
	TotalRays  int           // Total number of rays evaluated
	TotalTiles int           // Number of tiles rendered
	Elapsed    time.Duration // Wall-clock rendering time
}
