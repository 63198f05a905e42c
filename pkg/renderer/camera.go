package renderer

import (
	"image"
	"math"

	"github.com/df07/go-nerf-renderer/pkg/core"
)

// CameraConfig contains pinhole camera parameters
type CameraConfig struct {
	Center    core.Vec3 // Camera position
	LookAt    core.Vec3 // Point the camera looks at
	Up        core.Vec3 // Up direction hint
	Width     int       // Image width in pixels
	Height    int       // Image height in pixels
	VFov      float64   // Vertical field of view in degrees
	NearPlane float64   // Near integration bound for generated rays
	FarPlane  float64   // Far integration bound for generated rays
}

// Camera generates ray bundles for rendering
type Camera struct {
	config     CameraConfig
	origin     core.Vec3
	forward    core.Vec3
	right      core.Vec3
	up         core.Vec3
	viewWidth  float64
	viewHeight float64
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	viewHeight := 2 * math.Tan(config.VFov*math.Pi/360)
	viewWidth := viewHeight * float64(config.Width) / float64(config.Height)

	return &Camera{
		config:     config,
		origin:     config.Center,
		forward:    forward,
		right:      right,
		up:         up,
		viewWidth:  viewWidth,
		viewHeight: viewHeight,
	}
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1,
// with t=0 at the top of the image
func (c *Camera) GetRay(s, t float64) core.Ray {
	direction := c.forward.
		Add(c.right.Multiply((s - 0.5) * c.viewWidth)).
		Add(c.up.Multiply((0.5 - t) * c.viewHeight))
	return core.NewRay(c.origin, direction.Normalize())
}

// RayBundle generates one ray per pixel within the given image bounds,
// in row-major order. A jitter source offsets rays within each pixel;
// nil shoots through pixel centers.
func (c *Camera) RayBundle(bounds image.Rectangle, jitter core.Sampler) *core.RayBundle {
	n := bounds.Dx() * bounds.Dy()
	origins := make([]core.Vec3, 0, n)
	directions := make([]core.Vec3, 0, n)
	nears := make([]float64, 0, n)
	fars := make([]float64, 0, n)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			offset := core.NewVec2(0.5, 0.5)
			if jitter != nil {
				offset = jitter.Get2D()
			}
			s := (float64(i) + offset.X) / float64(c.config.Width)
			t := (float64(j) + offset.Y) / float64(c.config.Height)

			ray := c.GetRay(s, t)
			origins = append(origins, ray.Origin)
			directions = append(directions, ray.Direction)
			nears = append(nears, c.config.NearPlane)
			fars = append(fars, c.config.FarPlane)
		}
	}

	return &core.RayBundle{
		Origins:    origins,
		Directions: directions,
		Nears:      nears,
		Fars:       fars,
	}
}
