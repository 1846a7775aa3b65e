// Package config loads, saves and builds simulation scenes from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigid2d/internal/engine"
	"github.com/san-kum/rigid2d/internal/geometry"
	"github.com/san-kum/rigid2d/internal/rigid"
	"github.com/san-kum/rigid2d/internal/tableau"
)

const (
	DefaultIntegrator = "rk4"
	DefaultDt         = 0.01
	DefaultStiffness  = 5.0
	DefaultDampening  = 2.0
	DefaultMass       = 1.0
	DefaultSize       = 1.0
)

// Scene is a complete simulation description.
type Scene struct {
	Name        string             `yaml:"name"`
	Engine      EngineConfig       `yaml:"engine"`
	Bodies      []BodyConfig       `yaml:"bodies"`
	Forces      []ForceConfig      `yaml:"forces"`
	Constraints []ConstraintConfig `yaml:"constraints"`
}

type EngineConfig struct {
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Stiffness  float64 `yaml:"stiffness"`
	Dampening  float64 `yaml:"dampening"`
	Adaptive   bool    `yaml:"adaptive"`
	Tolerance  float64 `yaml:"tolerance"`
}

// BodyConfig describes one body. Vertices take precedence over the
// width/height box shorthand; both absent yields a unit box.
type BodyConfig struct {
	Pos      [2]float64   `yaml:"pos"`
	Vel      [2]float64   `yaml:"vel"`
	Angle    float64      `yaml:"angle"`
	AngVel   float64      `yaml:"angvel"`
	Mass     float64      `yaml:"mass"`
	Charge   float64      `yaml:"charge"`
	Static   bool         `yaml:"static"`
	Width    float64      `yaml:"width"`
	Height   float64      `yaml:"height"`
	Vertices [][2]float64 `yaml:"vertices"`
}

// ForceConfig describes one force source. Body nil means global scope.
type ForceConfig struct {
	Kind    string     `yaml:"kind"` // gravity | drag | constant | spring
	Body    *int       `yaml:"body"`
	G       [2]float64 `yaml:"g"`
	F       [2]float64 `yaml:"f"`
	Torque  float64    `yaml:"torque"`
	Linear  float64    `yaml:"linear"`
	Angular float64    `yaml:"angular"`
	Anchor  [2]float64 `yaml:"anchor"`
	Rest    float64    `yaml:"rest"`
	K       float64    `yaml:"k"`
}

// ConstraintConfig describes one constraint by body indices into the
// scene's body list. Length nil locks the current configuration.
type ConstraintConfig struct {
	Kind   string     `yaml:"kind"` // distance | anchor
	Bodies []int      `yaml:"bodies"`
	Length *float64   `yaml:"length"`
	Anchor [2]float64 `yaml:"anchor"`
}

// Default returns a scene with engine defaults and no bodies.
func Default() *Scene {
	return &Scene{
		Engine: EngineConfig{
			Integrator: DefaultIntegrator,
			Dt:         DefaultDt,
			Stiffness:  DefaultStiffness,
			Dampening:  DefaultDampening,
			Tolerance:  1e-8,
		},
	}
}

// Load reads a scene file, applying defaults for absent engine fields.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scene := Default()
	if err := yaml.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return scene, nil
}

// Save writes a scene file.
func Save(path string, scene *Scene) error {
	data, err := yaml.Marshal(scene)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func vec(v [2]float64) geometry.Vec2 { return geometry.Vec2{X: v[0], Y: v[1]} }

// Build constructs an engine from the scene. The returned handles parallel
// the scene's body list. The first invalid entry aborts the build.
func Build(scene *Scene) (*engine.Engine, []engine.Handle, error) {
	tab, err := tableau.ByName(scene.Engine.Integrator)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(tab, scene.Engine.Dt, len(scene.Bodies))
	if err != nil {
		return nil, nil, err
	}
	e.SetStiffness(scene.Engine.Stiffness)
	e.SetDampening(scene.Engine.Dampening)

	handles := make([]engine.Handle, 0, len(scene.Bodies))
	bodies := make([]*rigid.Body, 0, len(scene.Bodies))
	for i, bc := range scene.Bodies {
		h, err := e.AddBody(bodySpec(bc))
		if err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", i, err)
		}
		b, _ := e.Body(h)
		handles = append(handles, h)
		bodies = append(bodies, b)
	}

	for i, fc := range scene.Forces {
		src, err := forceSource(fc)
		if err != nil {
			return nil, nil, fmt.Errorf("force %d: %w", i, err)
		}
		scope := engine.Global()
		if fc.Body != nil {
			if *fc.Body < 0 || *fc.Body >= len(handles) {
				return nil, nil, fmt.Errorf("force %d: body index %d out of range", i, *fc.Body)
			}
			scope = engine.On(handles[*fc.Body])
		}
		if err := e.AddForce(src, scope); err != nil {
			return nil, nil, fmt.Errorf("force %d: %w", i, err)
		}
	}

	for i, cc := range scene.Constraints {
		c, err := constraint(cc, bodies)
		if err != nil {
			return nil, nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		if err := e.AddConstraint(c); err != nil {
			return nil, nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}

	return e, handles, nil
}

func bodySpec(bc BodyConfig) rigid.BodySpec {
	mass := bc.Mass
	if mass == 0 {
		mass = DefaultMass
	}

	var vertices []geometry.Vec2
	if len(bc.Vertices) > 0 {
		vertices = make([]geometry.Vec2, len(bc.Vertices))
		for i, v := range bc.Vertices {
			vertices[i] = vec(v)
		}
	} else {
		w, h := bc.Width, bc.Height
		if w == 0 {
			w = DefaultSize
		}
		if h == 0 {
			h = DefaultSize
		}
		vertices = []geometry.Vec2{
			{X: -w / 2, Y: -h / 2}, {X: w / 2, Y: -h / 2},
			{X: w / 2, Y: h / 2}, {X: -w / 2, Y: h / 2},
		}
	}

	return rigid.BodySpec{
		Pos:      vec(bc.Pos),
		Vel:      vec(bc.Vel),
		Angle:    bc.Angle,
		AngVel:   bc.AngVel,
		Mass:     mass,
		Charge:   bc.Charge,
		Static:   bc.Static,
		Vertices: vertices,
	}
}

func forceSource(fc ForceConfig) (rigid.ForceSource, error) {
	switch fc.Kind {
	case "gravity":
		return rigid.Gravity{G: vec(fc.G)}, nil
	case "drag":
		return rigid.Drag{Linear: fc.Linear, Angular: fc.Angular}, nil
	case "constant":
		return rigid.ConstantForce{F: vec(fc.F), Torque: fc.Torque}, nil
	case "spring":
		return rigid.Spring{Anchor: vec(fc.Anchor), Rest: fc.Rest, K: fc.K}, nil
	default:
		return nil, fmt.Errorf("unknown force kind %q", fc.Kind)
	}
}

func constraint(cc ConstraintConfig, bodies []*rigid.Body) (rigid.Constraint, error) {
	for _, i := range cc.Bodies {
		if i < 0 || i >= len(bodies) {
			return nil, fmt.Errorf("body index %d out of range", i)
		}
	}

	switch cc.Kind {
	case "distance":
		if len(cc.Bodies) != 2 {
			return nil, fmt.Errorf("distance constraint needs 2 bodies, got %d", len(cc.Bodies))
		}
		c := rigid.NewDistanceConstraint(bodies[cc.Bodies[0]], bodies[cc.Bodies[1]])
		if cc.Length != nil {
			c.Length = *cc.Length
		}
		return c, nil
	case "anchor":
		if len(cc.Bodies) != 1 {
			return nil, fmt.Errorf("anchor constraint needs 1 body, got %d", len(cc.Bodies))
		}
		c := rigid.NewAnchorConstraint(bodies[cc.Bodies[0]], vec(cc.Anchor))
		if cc.Length != nil {
			c.Length = *cc.Length
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown constraint kind %q", cc.Kind)
	}
}
