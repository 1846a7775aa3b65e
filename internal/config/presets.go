package config

import (
	"fmt"
	"sort"
)

func floatPtr(v float64) *float64 { return &v }

// Presets are ready-made scenes runnable by name from the CLI.
var presets = map[string]func() *Scene{
	"free-fall":       freeFall,
	"pendulum":        pendulum,
	"double-pendulum": doublePendulum,
	"chain":           chain,
}

// PresetDescriptions maps preset names to one-line summaries for the CLI.
var PresetDescriptions = map[string]string{
	"free-fall":       "single body under gravity, no constraints",
	"pendulum":        "bob on a rigid link to a static pivot",
	"double-pendulum": "two links, chaotic for most initial conditions",
	"chain":           "five-link chain hanging from a static anchor",
}

// Preset returns a named built-in scene.
func Preset(name string) (*Scene, error) {
	f, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the built-in scenes.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func freeFall() *Scene {
	s := Default()
	s.Name = "free-fall"
	s.Bodies = []BodyConfig{
		{Pos: [2]float64{0, 0}, Mass: 1},
	}
	s.Forces = []ForceConfig{
		{Kind: "gravity", G: [2]float64{0, -100}},
	}
	return s
}

func pendulum() *Scene {
	s := Default()
	s.Name = "pendulum"
	s.Engine.Dt = 0.005
	s.Engine.Stiffness = 100
	s.Engine.Dampening = 20
	s.Bodies = []BodyConfig{
		{Pos: [2]float64{0, 0}, Static: true},
		{Pos: [2]float64{1, 0}, Mass: 1, Width: 0.4, Height: 0.4},
	}
	s.Forces = []ForceConfig{
		{Kind: "gravity", G: [2]float64{0, -9.81}},
	}
	s.Constraints = []ConstraintConfig{
		{Kind: "distance", Bodies: []int{0, 1}, Length: floatPtr(1)},
	}
	return s
}

func doublePendulum() *Scene {
	s := Default()
	s.Name = "double-pendulum"
	s.Engine.Dt = 0.002
	s.Engine.Stiffness = 100
	s.Engine.Dampening = 20
	s.Bodies = []BodyConfig{
		{Pos: [2]float64{0, 0}, Static: true},
		{Pos: [2]float64{1, 0}, Mass: 1, Width: 0.3, Height: 0.3},
		{Pos: [2]float64{2, 0}, Mass: 1, Width: 0.3, Height: 0.3},
	}
	s.Forces = []ForceConfig{
		{Kind: "gravity", G: [2]float64{0, -9.81}},
	}
	s.Constraints = []ConstraintConfig{
		{Kind: "distance", Bodies: []int{0, 1}, Length: floatPtr(1)},
		{Kind: "distance", Bodies: []int{1, 2}, Length: floatPtr(1)},
	}
	return s
}

func chain() *Scene {
	const links = 5
	s := Default()
	s.Name = "chain"
	s.Engine.Dt = 0.002
	s.Engine.Stiffness = 200
	s.Engine.Dampening = 30

	s.Bodies = []BodyConfig{{Pos: [2]float64{0, 0}, Static: true}}
	for i := 1; i <= links; i++ {
		s.Bodies = append(s.Bodies, BodyConfig{
			Pos: [2]float64{float64(i) * 0.5, 0}, Mass: 0.5, Width: 0.2, Height: 0.2,
		})
	}
	s.Forces = []ForceConfig{
		{Kind: "gravity", G: [2]float64{0, -9.81}},
		{Kind: "drag", Linear: 0.05, Angular: 0.05},
	}
	for i := 0; i < links; i++ {
		s.Constraints = append(s.Constraints, ConstraintConfig{
			Kind: "distance", Bodies: []int{i, i + 1}, Length: floatPtr(0.5),
		})
	}
	return s
}
