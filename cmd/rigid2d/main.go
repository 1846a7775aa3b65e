package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigid2d/internal/config"
	"github.com/san-kum/rigid2d/internal/engine"
	"github.com/san-kum/rigid2d/internal/export"
	"github.com/san-kum/rigid2d/internal/metrics"
	"github.com/san-kum/rigid2d/internal/rigid"
	"github.com/san-kum/rigid2d/internal/viz"
)

var (
	configFile string
	dt         float64
	duration   float64
	integrator string
	stiffness  float64
	dampening  float64
	adaptive   bool
	tolerance  float64
	plot       bool
	svgPath    string
	substeps   int
	zoom       float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigid2d",
		Short: "2d rigid body physics sandbox",
	}

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scene headless and report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
	runCmd.Flags().Float64Var(&stiffness, "stiffness", -1, "baumgarte stiffness override")
	runCmd.Flags().Float64Var(&dampening, "dampening", -1, "baumgarte dampening override")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping (embedded tableaus)")
	runCmd.Flags().Float64Var(&tolerance, "tol", 1e-8, "adaptive tolerance")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot trajectory and drift")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final scene to an svg file")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "watch a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
	liveCmd.Flags().IntVar(&substeps, "substeps", 30, "engine steps per frame")
	liveCmd.Flags().Float64Var(&zoom, "zoom", 12, "pixels per world unit")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, name := range config.PresetNames() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.PresetDescriptions[name])
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadScene(args []string) (*config.Scene, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	name := "pendulum"
	if len(args) > 0 {
		name = args[0]
	}
	return config.Preset(name)
}

func applyOverrides(scene *config.Scene) {
	if dt > 0 {
		scene.Engine.Dt = dt
	}
	if integrator != "" {
		scene.Engine.Integrator = integrator
	}
	if stiffness >= 0 {
		scene.Engine.Stiffness = stiffness
	}
	if dampening >= 0 {
		scene.Engine.Dampening = dampening
	}
}

func runScene(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(args)
	if err != nil {
		return err
	}
	applyOverrides(scene)

	e, _, err := config.Build(scene)
	if err != nil {
		return err
	}

	observed := []metrics.Metric{
		&metrics.LinearMomentum{},
		&metrics.KineticEnergy{},
	}
	drift := metrics.NewConstraintDrift(e.Constraints())
	if len(e.Constraints()) > 0 {
		observed = append(observed, drift)
	}

	var tracked *rigid.Body
	for _, b := range e.Bodies() {
		if b.Dynamic() {
			tracked = b
			break
		}
	}

	var height, driftHistory []float64
	for e.Time() < duration {
		if adaptive {
			err = e.StepAdaptive(tolerance)
		} else {
			err = e.Step()
		}
		if err != nil {
			return fmt.Errorf("aborted at t=%.4f: %w", e.Time(), err)
		}

		for _, m := range observed {
			m.Observe(e.Bodies(), e.Time())
		}
		if tracked != nil {
			height = append(height, tracked.Pos().Y)
		}
		driftHistory = append(driftHistory, e.Drift())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "scene\t%s\n", scene.Name)
	fmt.Fprintf(w, "integrator\t%s\n", scene.Engine.Integrator)
	fmt.Fprintf(w, "simulated\t%.3f s in %d steps\n", e.Time(), e.Steps())
	for _, m := range observed {
		fmt.Fprintf(w, "%s\t%.6g\n", m.Name(), m.Value())
	}
	if tracked != nil {
		fmt.Fprintf(w, "tracked body\t(%.4f, %.4f)\n", tracked.Pos().X, tracked.Pos().Y)
	}
	w.Flush()

	if plot {
		if len(height) > 0 {
			fmt.Println("\nheight of tracked body:")
			fmt.Println(asciigraph.Plot(downsample(height, 120), asciigraph.Height(12)))
		}
		if len(e.Constraints()) > 0 {
			fmt.Println("\nconstraint drift:")
			fmt.Println(asciigraph.Plot(downsample(driftHistory, 120), asciigraph.Height(8)))
		}
	}

	if svgPath != "" {
		if err := export.WriteSceneSVG(svgPath, e.Bodies(), e.Constraints(), 800, 600); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(args)
	if err != nil {
		return err
	}

	e, _, err := config.Build(scene)
	if err != nil {
		return err
	}

	rebuild := func() (*engine.Engine, error) {
		fresh, _, err := config.Build(scene)
		return fresh, err
	}
	return viz.Run(viz.NewModel(e, scene.Name, substeps, zoom, rebuild))
}

// downsample keeps terminal plots readable for long runs.
func downsample(data []float64, max int) []float64 {
	if len(data) <= max {
		return data
	}
	out := make([]float64, max)
	for i := range out {
		out[i] = data[i*len(data)/max]
	}
	return out
}
