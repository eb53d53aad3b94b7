// Command primer opens a window and renders an animated, per-vertex colored mesh
// through a WebGPU pipeline until the window is closed or the exit key is pressed.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/Carmen-Shannon/oxy-primer/config"
	"github.com/Carmen-Shannon/oxy-primer/engine"
)

// Exit codes returned by run.
const (
	exitOK     = 0
	exitConfig = 1
	exitUsage  = 2
	exitInit   = -1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, loads the scene and drives the engine until it stops.
// Configuration errors return exitConfig before any window is opened.
func run(args []string) int {
	flags := flag.NewFlagSet("primer", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML scene file (defaults are used when empty)")
	frames := flags.Int("frames", 0, "stop after this many frames, 0 runs until the window closes")
	mesh := flags.String("mesh", "", "override the mesh kind (cube, triangle or sphere)")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("[Primer] %v", err)
			return exitConfig
		}
		cfg = loaded
	}
	if *mesh != "" {
		cfg.Mesh.Kind = *mesh
		if err := cfg.Validate(); err != nil {
			log.Printf("[Primer] %v", err)
			return exitConfig
		}
	}

	eng := engine.NewEngine(cfg, engine.WithMaxFrames(*frames))
	if err := eng.Init(); err != nil {
		log.Printf("[Primer] %v", err)
		return exitInit
	}
	defer eng.Shutdown()

	if err := eng.Run(); err != nil {
		log.Printf("[Primer] %v", err)
		return exitInit
	}
	return exitOK
}
