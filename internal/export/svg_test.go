package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/rigid2d/internal/geometry"
	"github.com/san-kum/rigid2d/internal/rigid"
)

func makeBody(t *testing.T, pos geometry.Vec2, static bool) *rigid.Body {
	t.Helper()
	b, err := rigid.NewBody(rigid.BodySpec{
		Pos:    pos,
		Mass:   1,
		Static: static,
		Vertices: []geometry.Vec2{
			{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5},
		},
	})
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return b
}

func TestSceneSVG(t *testing.T) {
	a := makeBody(t, geometry.Vec2{}, true)
	b := makeBody(t, geometry.Vec2{X: 2, Y: 0}, false)
	c := rigid.NewDistanceConstraint(a, b)

	svg := SceneSVG([]*rigid.Body{a, b}, []rigid.Constraint{c}, 400, 300)

	if !strings.HasPrefix(svg, `<?xml`) || !strings.Contains(svg, "</svg>") {
		t.Error("not a complete SVG document")
	}
	if strings.Count(svg, "<polygon") != 2 {
		t.Errorf("expected 2 polygons, got %d", strings.Count(svg, "<polygon"))
	}
	if strings.Count(svg, "<line") != 1 {
		t.Errorf("expected 1 constraint link, got %d", strings.Count(svg, "<line"))
	}
}

func TestSceneSVGEmpty(t *testing.T) {
	if svg := SceneSVG(nil, nil, 400, 300); svg != "" {
		t.Error("expected empty output for no bodies")
	}
}

func TestWriteSceneSVG(t *testing.T) {
	b := makeBody(t, geometry.Vec2{}, false)
	path := filepath.Join(t.TempDir(), "scene.svg")

	if err := WriteSceneSVG(path, []*rigid.Body{b}, nil, 200, 200); err != nil {
		t.Fatalf("WriteSceneSVG: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "<polygon") {
		t.Error("written file missing polygon")
	}
}
