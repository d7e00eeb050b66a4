package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/jutsu/internal/app"
	"github.com/ayusman/jutsu/internal/audio"
	"github.com/ayusman/jutsu/internal/capture"
	"github.com/ayusman/jutsu/internal/config"
	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/effect"
	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/gesture"
	"github.com/ayusman/jutsu/internal/server"
	"github.com/ayusman/jutsu/internal/store"
	"github.com/ayusman/jutsu/internal/tray"
)

// The display window and the tray both need the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (default ./config.json)")
	resume := flag.Bool("resume", false, "select the last used combo at startup")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *resume, logger); err != nil {
		logger.Error("jutsu stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(cfg *config.Config, resume bool, logger *zap.Logger) error {
	logger.Info("starting jutsu", zap.String("data_dir", cfg.DataDir), zap.String("http_addr", cfg.HTTPAddr))

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	lib, err := loadLibrary(st, cfg, logger)
	if err != nil {
		return err
	}

	assets, err := effect.LoadAssets(cfg.EffectsDir, cfg.Effects, logger)
	if err != nil {
		return fmt.Errorf("load effects: %w", err)
	}
	defer effect.CloseAssets(assets)

	guides, err := effect.LoadGuides(cfg.SealsDir, logger)
	if err != nil {
		return fmt.Errorf("load seal guides: %w", err)
	}
	defer guides.Close()

	sound := audio.NewProcessPlayer(cfg.AudioCommand, logger)
	defer sound.Stop()

	player := effect.NewPlayer(assets, sound, cfg.DefaultDurationFrames, logger)
	eng := engine.New(cfg.Engine(), lib, player, guides, logger)

	var (
		a      *app.App
		window *gocv.Window
	)
	appCfg := app.Config{FPS: cfg.FPS, Logger: logger}
	if cfg.Window && !cfg.Tray {
		window = gocv.NewWindow("Jutsu")
		defer window.Close()
		appCfg.OnFrame = func(frame *gocv.Mat) {
			window.IMShow(*frame)
			a.HandleKey(window.WaitKey(1))
		}
	} else if cfg.Window {
		logger.Info("display window disabled in tray mode")
	}

	a = app.New(appCfg, capture.NewCamera(cfg.CameraID, cfg.FPS), newDetector(cfg.Detector, logger), eng)

	if resume {
		resumeLastCombo(st, a, logger)
	}

	hub := server.NewHub(logger)
	srv := server.New(server.Config{
		StaticDir:  findWebDir(),
		Store:      st,
		Controller: a,
		Frames:     a.Frames(),
		Hub:        hub,
		Logger:     logger,
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	recorder := app.NewRecorder(st, hub, logger)
	g.Go(func() error {
		recorder.Run(a.Events())
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPAddr)
	})

	loop := func() error {
		defer cancel()
		return a.Run(gctx)
	}

	switch {
	case cfg.Tray:
		g.Go(loop)
		runTray(gctx, lib, a, logger)
		a.Quit()

	case window != nil:
		// The window must be driven from the main goroutine.
		err := loop()
		if werr := g.Wait(); err == nil {
			err = werr
		}
		return err

	default:
		g.Go(loop)
	}

	return g.Wait()
}

// loadLibrary seeds the store with the configured combos on first run and
// builds the library from what is stored.
func loadLibrary(st *store.Store, cfg *config.Config, logger *zap.Logger) (*gesture.Library, error) {
	seeded, err := st.Combos().SeedCombos(cfg.Combos)
	if err != nil {
		return nil, fmt.Errorf("seed combos: %w", err)
	}
	if seeded {
		logger.Info("seeded combo library", zap.Int("combos", len(cfg.Combos)))
	}

	combos, err := st.Combos().List()
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	if len(combos) == 0 {
		return cfg.Library()
	}
	return gesture.NewLibrary(combos...)
}

func newDetector(cfg detector.Config, logger *zap.Logger) detector.Detector {
	det, err := detector.NewMediaPipeDetector(cfg, logger)
	if err != nil {
		logger.Warn("hand tracking unavailable, no seals will be seen", zap.Error(err))
		return detector.NewMockDetector()
	}
	return det
}

func resumeLastCombo(st *store.Store, a *app.App, logger *zap.Logger) {
	id, err := st.Settings().Get(app.LastComboSetting)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("failed to read last combo", zap.Error(err))
		}
		return
	}
	if err := a.Select(id); err != nil {
		logger.Warn("last combo no longer exists", zap.String("combo", id), zap.Error(err))
	}
}

func runTray(ctx context.Context, lib *gesture.Library, a *app.App, logger *zap.Logger) {
	t := tray.New(lib.List())
	t.OnSelect(func(id string) {
		if err := a.Select(id); err != nil {
			logger.Warn("tray select failed", zap.String("combo", id), zap.Error(err))
		}
	})
	t.OnCancel(a.Cancel)
	t.OnQuit(a.Quit)

	go t.Watch(ctx, func() engine.Status { return a.Status().Status }, tray.StatusInterval)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.jutsu/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".jutsu", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
