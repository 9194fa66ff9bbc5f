package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/chazu/loom/internal/config"
	"github.com/chazu/loom/pkg/cellfile"
	"github.com/chazu/loom/pkg/engine"
	"github.com/chazu/loom/pkg/expr"
	"github.com/chazu/loom/pkg/kernel"
	"github.com/chazu/loom/pkg/kernel/sdfx"
	"github.com/chazu/loom/pkg/layout"
	"github.com/chazu/loom/pkg/tech"
	"github.com/chazu/loom/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to layers.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ErrTechUnusable is returned when a technology file fails to evaluate or
// has validation errors.
var ErrTechUnusable = errors.New("technology is unusable")

// App runs the loom pipelines behind the commands.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    *config.Config
	log    *log.Logger
}

// MeshData is the JSON mesh format written by the mesh command.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Level    string    `json:"level"`
	Bottom   float64   `json:"bottom"`
	Top      float64   `json:"top"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// CheckResult is the outcome of loading a technology file.
type CheckResult struct {
	Tech     *tech.Tech
	Errors   []EvalErrorData
	Findings []tech.ValidationError
}

// OK reports whether the technology can be used.
func (r CheckResult) OK() bool {
	return r.Tech != nil && len(r.Errors) == 0 && !tech.HasErrors(r.Findings)
}

// OffsetResult is the outcome of abutting two cells.
type OffsetResult struct {
	Axis     int
	Offset   int
	Conflict bool
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp(cfg *config.Config, logger *log.Logger) *App {
	if cfg == nil {
		cfg = &config.Config{HorizSpacing: true, MeshZScale: 1}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		cfg:    cfg,
		log:    logger,
	}
}

// Check evaluates and validates a technology file. Only read failures and
// fatal evaluation failures are returned as errors.
func (a *App) Check(ctx context.Context, path string) (CheckResult, error) {
	res, err := a.engine.LoadFile(ctx, path)
	if err != nil {
		return CheckResult{}, err
	}

	out := CheckResult{
		Tech:     res.Tech,
		Errors:   []EvalErrorData{},
		Findings: res.Findings,
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if out.Tech != nil {
		a.log.Debug("tech loaded", "path", path, "paints", len(out.Tech.Paint), "rules", len(out.Tech.Rules))
	}
	return out, nil
}

// LoadTech returns a usable technology or an error naming the first problem.
// Warnings are logged.
func (a *App) LoadTech(ctx context.Context, path string) (*tech.Tech, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no technology file given (--tech or LOOM_TECH)", ErrTechUnusable)
	}
	res, err := a.Check(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		e := res.Errors[0]
		return nil, fmt.Errorf("%w: %s: line %d: %s", ErrTechUnusable, path, e.Line, e.Message)
	}
	for _, f := range res.Findings {
		if f.Severity == tech.SeverityError {
			return nil, fmt.Errorf("%w: %s: %v", ErrTechUnusable, path, f)
		}
		a.log.Warn(f.Message, "ref", res.Tech.Print(f.Ref))
	}
	return res.Tech, nil
}

// LoadCell reads a cell file and splits its polygons into rectangles.
func (a *App) LoadCell(t *tech.Tech, path string) (*layout.Layout, error) {
	l, err := cellfile.Load(t, path)
	if err != nil {
		return nil, err
	}
	if err := l.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.Debug("cell loaded", "path", path, "name", l.Name, "layers", len(l.Layers))
	return l, nil
}

// Trace loads a cell and extracts its nets.
func (a *App) Trace(t *tech.Tech, path string) (*layout.Layout, error) {
	l, err := a.LoadCell(t, path)
	if err != nil {
		return nil, err
	}
	l.Trace()
	a.log.Info("traced", "cell", l.Name, "nets", len(l.Nets))
	return l, nil
}

// Eval computes a layer expression over a cell and returns the cell with
// the result.
func (a *App) Eval(t *tech.Tech, path, query string) (*layout.Layout, *layout.Layer, error) {
	ref, err := expr.Compile(t, query)
	if err != nil {
		return nil, nil, err
	}
	l, err := a.LoadCell(t, path)
	if err != nil {
		return nil, nil, err
	}
	ev, err := layout.NewEvaluation(l)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	layer := ev.At(ref)
	a.log.Debug("evaluated", "expr", t.Print(ref), "rects", len(layer.Geo))
	return l, layer, nil
}

// Offset returns how far right must sit from left along axis for their
// geometry to meet the spacing rules.
func (a *App) Offset(t *tech.Tech, leftPath, rightPath string, axis int) (OffsetResult, error) {
	if axis != 0 && axis != 1 {
		return OffsetResult{}, fmt.Errorf("axis must be 0 or 1, got %d", axis)
	}
	opts, err := a.cfg.Offset()
	if err != nil {
		return OffsetResult{}, err
	}
	left, err := a.LoadCell(t, leftPath)
	if err != nil {
		return OffsetResult{}, err
	}
	right, err := a.LoadCell(t, rightPath)
	if err != nil {
		return OffsetResult{}, err
	}

	offset, conflict, err := layout.MinOffsetLayouts(axis, left, 0, right, 0, opts, 0)
	if err != nil {
		return OffsetResult{}, err
	}
	a.log.Info("offset", "left", left.Name, "right", right.Name, "axis", axis, "offset", offset, "conflict", conflict)
	return OffsetResult{Axis: axis, Offset: offset, Conflict: conflict}, nil
}

// Mesh extrudes the levels of a cell and returns one mesh per level.
func (a *App) Mesh(t *tech.Tech, path string) ([]MeshData, error) {
	l, err := a.LoadCell(t, path)
	if err != nil {
		return nil, err
	}

	opts := tessellate.DefaultOptions()
	opts.Cells = a.cfg.MeshCells
	opts.ZScale = a.cfg.MeshZScale

	meshes, err := tessellate.Layout(l, a.kernel, opts)
	if err != nil {
		return nil, err
	}
	if slabs, err := tessellate.Slabs(l); err == nil && len(slabs) > len(meshes) {
		a.log.Warn("levels too thin to mesh", "skipped", len(slabs)-len(meshes), "hint", "raise LOOM_MESH_ZSCALE")
	}

	result := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		result = append(result, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Level:    m.Level,
			Bottom:   m.Bottom,
			Top:      m.Top,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result, nil
}
