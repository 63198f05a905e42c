// Package graph wires samplers, fields and renderers into the full
// hierarchical forward pass: a coarse uniform pass whose weights guide
// importance sampling for the fine pass.
package graph

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-nerf-renderer/pkg/core"
	"github.com/df07/go-nerf-renderer/pkg/field"
	"github.com/df07/go-nerf-renderer/pkg/metrics"
	"github.com/df07/go-nerf-renderer/pkg/renderer"
	"github.com/df07/go-nerf-renderer/pkg/sampler"
)

// Loss term keys produced by GetLossDict
const (
	LossRGBCoarse  = "rgb_loss_coarse"
	LossRGBFine    = "rgb_loss_fine"
	LossAggregated = "aggregated_loss"
)

// Config contains graph-level parameters
type Config struct {
	NearPlane            float64               // Default near bound for rays without bounds
	FarPlane             float64               // Default far bound for rays without bounds
	NumCoarseSamples     int                   // Stratified samples for the coarse pass
	NumImportanceSamples int                   // Importance samples added for the fine pass
	Background           core.Vec3             // Background color composited behind transparent rays
	Field                field.NeRFFieldConfig // Architecture shared by both field instances
	Seed                 int64                 // Seed for parameter initialization
}

// DefaultConfig returns the vanilla NeRF setup: bounds [2,6], 64 coarse
// and 128 importance samples, white background
func DefaultConfig() Config {
	return Config{
		NearPlane:            2.0,
		FarPlane:             6.0,
		NumCoarseSamples:     64,
		NumImportanceSamples: 128,
		Background:           core.ColorWhite,
		Field:                field.DefaultNeRFFieldConfig(),
		Seed:                 42,
	}
}

// Batch is a training batch of ground-truth per-ray pixel colors, keyed
// to match the ray bundle ordering of the corresponding forward pass
type Batch struct {
	Pixels *mat.Dense // R×3 ground-truth colors
}

// NeRFGraph orchestrates two independently parameterized field
// instances: the coarse field guides sampling, the fine field produces
// the final estimate. A forward pass holds no mutable graph state, so
// concurrent GetOutputs calls are safe as long as parameters are not
// being mutated.
type NeRFGraph struct {
	config Config

	samplerUniform *sampler.UniformSampler
	samplerPDF     *sampler.PDFSampler

	fieldCoarse core.Field
	fieldFine   core.Field

	rendererRGB          *renderer.RGBRenderer
	rendererAccumulation *renderer.AccumulationRenderer
	rendererDepth        *renderer.DepthRenderer

	rgbLoss *MSELoss
}

// NewNeRFGraph creates a graph with two freshly initialized neural
// fields of identical architecture but separate weights
func NewNeRFGraph(config Config) (*NeRFGraph, error) {
	random := rand.New(rand.NewSource(config.Seed))

	fieldCoarse, err := field.NewNeRFField(config.Field, random)
	if err != nil {
		return nil, fmt.Errorf("coarse field: %v", err)
	}
	fieldFine, err := field.NewNeRFField(config.Field, random)
	if err != nil {
		return nil, fmt.Errorf("fine field: %v", err)
	}

	return NewNeRFGraphWithFields(config, fieldCoarse, fieldFine)
}

// NewNeRFGraphWithFields creates a graph over caller-supplied field
// instances. Used with analytic reference fields and in tests.
func NewNeRFGraphWithFields(config Config, fieldCoarse, fieldFine core.Field) (*NeRFGraph, error) {
	samplerUniform, err := sampler.NewUniformSampler(config.NearPlane, config.FarPlane, config.NumCoarseSamples)
	if err != nil {
		return nil, err
	}
	samplerPDF, err := sampler.NewPDFSampler(config.NumImportanceSamples)
	if err != nil {
		return nil, err
	}

	return &NeRFGraph{
		config:               config,
		samplerUniform:       samplerUniform,
		samplerPDF:           samplerPDF,
		fieldCoarse:          fieldCoarse,
		fieldFine:            fieldFine,
		rendererRGB:          renderer.NewRGBRenderer(config.Background),
		rendererAccumulation: renderer.NewAccumulationRenderer(),
		rendererDepth:        renderer.NewDepthRenderer(),
		rgbLoss:              NewMSELoss(),
	}, nil
}

// GetOutputs runs the two-stage forward pass and returns the named
// per-ray tensors. A nil jitter source makes the pass fully
// deterministic.
func (g *NeRFGraph) GetOutputs(bundle *core.RayBundle, jitter core.Sampler) (map[string]*mat.Dense, error) {
	// Coarse stage: stratified samples through the coarse field
	coarseSamples, err := g.samplerUniform.Sample(bundle, jitter)
	if err != nil {
		return nil, err
	}
	rgbCoarse, accCoarse, depthCoarse, coarseWeights, err := g.renderStage(g.fieldCoarse, coarseSamples)
	if err != nil {
		return nil, fmt.Errorf("coarse stage: %v", err)
	}

	// Fine stage: importance samples guided by the coarse weights,
	// merged with the coarse depths, through the fine field
	fineSamples, err := g.samplerPDF.Sample(coarseSamples, coarseWeights, jitter)
	if err != nil {
		return nil, err
	}
	rgbFine, accFine, depthFine, _, err := g.renderStage(g.fieldFine, fineSamples)
	if err != nil {
		return nil, fmt.Errorf("fine stage: %v", err)
	}

	return map[string]*mat.Dense{
		core.OutputRGBCoarse:          rgbCoarse,
		core.OutputRGBFine:            rgbFine,
		core.OutputAccumulationCoarse: accCoarse,
		core.OutputAccumulationFine:   accFine,
		core.OutputDepthCoarse:        depthCoarse,
		core.OutputDepthFine:          depthFine,
	}, nil
}

// renderStage evaluates one field on the samples and reduces the
// outputs to per-ray color, opacity and depth
func (g *NeRFGraph) renderStage(f core.Field, samples *core.RaySamples) (rgb, acc, depth, weights *mat.Dense, err error) {
	outputs, err := f.Evaluate(samples)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	density, ok := outputs[core.FieldHeadDensity]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("field produced no %s output", core.FieldHeadDensity)
	}
	sampleRGB, ok := outputs[core.FieldHeadRGB]
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("field produced no %s output", core.FieldHeadRGB)
	}

	weights, err = samples.GetWeights(density)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rgb, err = g.rendererRGB.Render(sampleRGB, weights)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	acc = g.rendererAccumulation.Render(weights)
	depth, err = g.rendererDepth.Render(weights, samples.Ts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return rgb, acc, depth, weights, nil
}

// GetLossDict computes the photometric loss terms between rendered and
// ground-truth colors, plus their aggregate
func (g *NeRFGraph) GetLossDict(outputs map[string]*mat.Dense, batch Batch) (map[string]float64, error) {
	rgbCoarse, ok := outputs[core.OutputRGBCoarse]
	if !ok {
		return nil, fmt.Errorf("outputs missing %s", core.OutputRGBCoarse)
	}
	rgbFine, ok := outputs[core.OutputRGBFine]
	if !ok {
		return nil, fmt.Errorf("outputs missing %s", core.OutputRGBFine)
	}

	lossCoarse, err := g.rgbLoss.Loss(rgbCoarse, batch.Pixels)
	if err != nil {
		return nil, fmt.Errorf("coarse loss: %v", err)
	}
	lossFine, err := g.rgbLoss.Loss(rgbFine, batch.Pixels)
	if err != nil {
		return nil, fmt.Errorf("fine loss: %v", err)
	}

	return map[string]float64{
		LossRGBCoarse:  lossCoarse,
		LossRGBFine:    lossFine,
		LossAggregated: lossCoarse + lossFine,
	}, nil
}

// GetParamGroups returns the learnable parameters grouped for optimizer
// setup. Analytic fields contribute no parameters.
func (g *NeRFGraph) GetParamGroups() map[string][]*mat.Dense {
	var fields []*mat.Dense
	for _, f := range []core.Field{g.fieldCoarse, g.fieldFine} {
		if p, ok := f.(interface{ Parameters() []*mat.Dense }); ok {
			fields = append(fields, p.Parameters()...)
		}
	}
	return map[string][]*mat.Dense{
		"fields": fields,
	}
}

// EvaluateImage computes image-level metrics between a rendered view
// and its ground truth, writing them to the injected event sink.
// Returns the fine PSNR.
func (g *NeRFGraph) EvaluateImage(gt, rgbCoarse, rgbFine [][]core.Vec3, imageIdx, step int, writer metrics.EventWriter) (float64, error) {
	coarsePSNR, err := metrics.PSNR(rgbCoarse, gt)
	if err != nil {
		return 0, err
	}
	finePSNR, err := metrics.PSNR(rgbFine, gt)
	if err != nil {
		return 0, err
	}
	fineSSIM, err := metrics.SSIM(rgbFine, gt)
	if err != nil {
		return 0, err
	}

	if writer != nil {
		writer.WriteScalar(fmt.Sprintf("val_idx_%d-coarse", imageIdx), "psnr", step, coarsePSNR)
		writer.WriteScalar(fmt.Sprintf("val_idx_%d-fine", imageIdx), "psnr", step, finePSNR)
		writer.WriteScalar(fmt.Sprintf("val_idx_%d", imageIdx), "ssim", step, fineSSIM)
	}
	return finePSNR, nil
}
