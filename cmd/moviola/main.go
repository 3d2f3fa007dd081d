package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/moviola/engine/internal/bridge"
	"github.com/moviola/engine/internal/clock"
	"github.com/moviola/engine/internal/config"
	"github.com/moviola/engine/internal/drop"
	"github.com/moviola/engine/internal/history"
	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/preview"
	"github.com/moviola/engine/internal/scene"
	"github.com/moviola/engine/internal/store"
	"github.com/moviola/engine/internal/surface"
	"github.com/moviola/engine/internal/surface/gpu"
	"github.com/moviola/engine/internal/system"
	"github.com/moviola/engine/internal/transport"
)

func main() {
	log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
		ForceColors:     true,
	})
	log.SetOutput(os.Stdout)

	configPtr := flag.String("config", "", "Path to a YAML engine config")
	widthPtr := flag.Int("width", 0, "Canvas width (overrides config)")
	heightPtr := flag.Int("height", 0, "Canvas height (overrides config)")
	fpsPtr := flag.Int("fps", 0, "Frames per second (overrides config)")
	addrPtr := flag.String("listen", "", "Bridge listen address (overrides config)")
	loopPtr := flag.Bool("loop", false, "Restart playback at the end of the timeline")
	noGPUPtr := flag.Bool("nogpu", false, "Skip GPU probing, use software rendering")
	framePtr := flag.String("frame", "", "Render one frame to this PNG and exit")
	layoutPtr := flag.String("layout", "", "Scene layout YAML to load at startup")
	verbosePtr := flag.Bool("verbose", false, "Debug logging")

	flag.Parse()

	if *verbosePtr {
		log.SetLevel(log.DebugLevel)
	}

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if *widthPtr > 0 {
		cfg.Width = *widthPtr
	}
	if *heightPtr > 0 {
		cfg.Height = *heightPtr
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}
	if *addrPtr != "" {
		cfg.ListenAddr = *addrPtr
	}
	if *loopPtr {
		cfg.LoopPlayback = true
	}
	if *noGPUPtr {
		cfg.NoGPU = true
	}
	if *layoutPtr != "" {
		cfg.LayoutPath = *layoutPtr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	system.InitResourceLimits()
	report := system.Probe()
	report.Log()

	// Watch folders, created up front like any other session state.
	for _, d := range []string{"layouts", "assets"} {
		if err := os.MkdirAll(d, 0755); err != nil {
			log.Warnf("watch folder %s: %v", d, err)
		}
	}

	fmt.Println("--- [MOVIOLA PREVIEW ENGINE] ---")
	fmt.Printf("[*] Canvas: %dx%d @ %d FPS\n", cfg.Width, cfg.Height, cfg.FPS)
	fmt.Printf("[*] Render workers: %d\n", report.RenderWorkers())
	fmt.Println("--------------------------------")

	st := store.New(cfg.Settings())
	st.SetShots(sampleShots())

	ledger := history.NewMemoryLedger(cfg.HistoryCap)
	drops := drop.New(st, ledger)

	loop := clock.LoopStop
	if cfg.LoopPlayback {
		loop = clock.LoopRestart
	}
	ck := clock.New(st, clock.WithLoopPolicy(loop))
	defer ck.Stop()

	input := transport.New(ck, st)

	var backends []surface.Backend
	if !cfg.NoGPU {
		backends = append(backends, gpu.New())
	}
	sceneView := surface.NewSceneSurface(st, backends...)
	defer sceneView.Close()
	if notice := sceneView.Notice(); notice != "" {
		fmt.Printf("[!] %s\n", notice)
	}

	// Dropped camera presets pose the scene camera at their start.
	drops.SetCameraApplier(func(meta model.CameraMetadata) {
		sceneView.ApplyCameraTrajectory(meta.Trajectory, 0)
	})

	if cfg.LayoutPath == "" {
		if latest, err := system.FindLatestLayout("layouts"); err == nil {
			cfg.LayoutPath = latest
		}
	}

	if cfg.LayoutPath != "" {
		layout, err := scene.ReadLayout(cfg.LayoutPath)
		if err != nil {
			log.Warnf("scene layout: %v", err)
		} else {
			sceneView.SetPuppets(layout.Puppets)
			fmt.Printf("[*] Scene layout loaded: %s (%d puppets)\n", cfg.LayoutPath, len(layout.Puppets))
		}
	} else {
		sceneView.SetPuppets(samplePuppets())
	}

	videoView := preview.NewCompositor(st)
	views := surface.NewViewController(videoView, sceneView)

	// The freshest image in the assets watch folder seeds the shot
	// under the playhead, the way input folders feed a session.
	if latest, err := system.FindLatestImage("assets"); err == nil {
		drops.Handle(drop.Payload{
			Asset:      model.NewCharacter("watch:"+filepath.Base(latest), filepath.Base(latest), latest),
			CategoryID: "character",
		})
		fmt.Printf("[*] Seeded reference from %s\n", latest)
	}

	if *framePtr != "" {
		if err := renderFrameTo(*framePtr, views); err != nil {
			log.Fatalf("frame render: %v", err)
		}
		fmt.Printf("[*] Frame written: %s\n", *framePtr)
		return
	}

	server := bridge.NewServer(st, input, drops, views)
	server.AttachScene(sceneView)
	server.AttachFrames(videoView, report.RenderWorkers())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(cfg.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("bridge: %v", err)
		}
	case sig := <-sigCh:
		fmt.Printf("\n[*] Shutting down (%s)\n", sig)
		ck.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}
}

func renderFrameTo(path string, views *surface.ViewController) error {
	img, err := views.Render()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func sampleShots() []model.Shot {
	opening := model.NewShot("Opening", 0, 240)
	opening.Prompt = "wide establishing shot, dawn light over the harbor"
	opening.Status = model.StatusDone

	confrontation := model.NewShot("Confrontation", 240, 360)
	confrontation.Prompt = "two figures on the pier, handheld, tense"
	confrontation.Status = model.StatusRunning

	closing := model.NewShot("Closing", 600, 240)
	closing.Prompt = "slow push-in on the empty dock"

	return []model.Shot{opening, confrontation, closing}
}

func samplePuppets() []scene.Puppet {
	return []scene.Puppet{
		{ID: "hero", Name: "Hero", Position: scene.Vec3{X: -1, Y: 1.5, Z: 0}},
		{ID: "rival", Name: "Rival", Position: scene.Vec3{X: 1, Y: 1.5, Z: 0.5}, RotationY: 180},
	}
}
