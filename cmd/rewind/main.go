package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/doppelganger/rewind/internal/config"
	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/data"
	"github.com/doppelganger/rewind/internal/persist"
	"github.com/doppelganger/rewind/internal/physics"
	"github.com/doppelganger/rewind/internal/scripting"
	"github.com/doppelganger/rewind/internal/sim"
	"github.com/doppelganger/rewind/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Display helpers ────────────────────────────────────────────────

var printer = message.NewPrinter(language.English)

func printBanner(level string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              rewind  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      headless time-loop simulation        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mlevel:\033[0m %s\n\n", level)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := printer.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printWarn(msg string) {
	fmt.Printf("  \033[31m✗\033[0m %s\n", msg)
}

// ── Run ────────────────────────────────────────────────────────────

func run() error {
	levelName := flag.String("level", "lab", "level to play")
	inputsPath := flag.String("inputs", "", "input script (yaml); defaults to data/inputs/<level>.yaml")
	exportPath := flag.String("export", "", "write the recorded timelines as TSV to this file")
	profileMode := flag.String("profile", "", "profile the run: cpu or mem")
	respawns := flag.Int("respawn", 0, "respawn at the checkpoint this many times after an anomaly")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/rewind.toml"
	if p := os.Getenv("REWIND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *profileMode)
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	printBanner(*levelName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Progress database
	printSection("database")
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK(fmt.Sprintf("%s connected", db.Driver()))

	if err := persist.RunMigrations(dbCtx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	progress := persist.NewProgressRepo(db)
	fmt.Println()

	// 4. Level data and scripts
	printSection("data")
	levels, err := data.LoadLevelTable(cfg.Data.LevelsDir)
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	printStat("levels", levels.Count())

	lv := levels.Get(*levelName)
	if lv == nil {
		return fmt.Errorf("unknown level %q (have %s)", *levelName, strings.Join(levels.Names(), ", "))
	}
	if unlocked, err := progress.Unlocked(ctx); err == nil && len(unlocked) > 0 && !slices.Contains(unlocked, lv.Name) {
		log.Warn("level not unlocked yet, playing anyway", zap.String("level", lv.Name))
	}
	printStat("entities", len(lv.Entities))

	if *inputsPath == "" {
		*inputsPath = fmt.Sprintf("data/inputs/%s.yaml", lv.Name)
	}
	script, err := data.LoadInputScript(*inputsPath)
	if err != nil {
		return fmt.Errorf("load inputs: %w", err)
	}
	printStat("scripted steps", script.Len())

	var brain world.GuardBrain = world.DefaultBrain{}
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		if engine.HasGuardAI() {
			printOK("guard AI script loaded")
		}
		brain = engine
	}
	fmt.Println()

	// 5. Simulation
	phys := physics.New(physics.Config{
		Gravity:  cfg.Physics.Gravity,
		MaxFall:  cfg.Physics.MaxFall,
		CellSize: cfg.Physics.CellSize,
	}, lv.Bounds.Rect(), lv.SolidRects())

	hooks := &runHooks{log: log}
	ctrl, err := sim.New(sim.Deps{
		Level:   lv,
		Physics: phys,
		Brain:   brain,
		Hooks:   hooks,
		Log:     log,
		Options: sim.OptionsFromConfig(cfg.Simulation),
	})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	printSection("run")
	start := time.Now()
	if err := play(ctx, ctrl, script, cfg.Simulation, *respawns, log); err != nil {
		return err
	}
	elapsed := time.Since(start)

	// 6. Results
	fp, err := ctrl.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	if *exportPath != "" {
		if err := exportTimelines(ctrl, *exportPath); err != nil {
			return err
		}
		printOK(fmt.Sprintf("timelines written to %s", *exportPath))
	}

	printStat("steps run", ctrl.StepsRun())
	printStat("time travels", ctrl.TimeTravels())
	printStat("frontier", ctrl.Frontier())
	printStat("recorded entities", ctrl.State().Histories.Len())
	printStat("timeline deltas", ctrl.State().Histories.Deltas())
	fmt.Printf("  fingerprint %s \033[90m(%s)\033[0m\n", fp[:16], elapsed.Round(time.Millisecond))

	if !ctrl.State().Completed {
		if a := ctrl.Anomaly(); a != nil {
			printWarn(fmt.Sprintf("%s: %s", a.Title, a.Cause))
		} else {
			printWarn("level not completed")
		}
		fmt.Println()
		return nil
	}

	c, err := progress.RecordCompletion(ctx, lv.Name, ctrl.StepsRun(), ctrl.TimeTravels(), time.Now())
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	if lv.Next != "" {
		if err := progress.Unlock(ctx, lv.Next); err != nil {
			return fmt.Errorf("unlock %s: %w", lv.Next, err)
		}
	}
	if c.NewBest {
		printOK(printer.Sprintf("level complete, new best %d steps", c.Best))
	} else {
		printOK(printer.Sprintf("level complete, best remains %d steps", c.Best))
	}
	fmt.Println()
	return nil
}

// play drives the controller with the input script until the level is
// finished, the script runs out or an anomaly is not respawned from.
func play(ctx context.Context, ctrl *sim.Controller, script *data.InputScript, cfg config.SimulationConfig, respawns int, log *zap.Logger) error {
	fed := 0
	for ctrl.StepsRun() < cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			log.Info("run interrupted", zap.Int("step", ctrl.Cursor()))
			return nil
		}
		switch ctrl.Mode() {
		case sim.Finished:
			return nil
		case sim.RewindAnimating:
			if err := ctrl.Frame(cfg.FixedDelta); err != nil {
				return fmt.Errorf("rewind: %w", err)
			}
			continue
		case sim.Paused:
			if respawns <= 0 {
				return nil
			}
			respawns--
			if err := ctrl.Respawn(); err != nil {
				return fmt.Errorf("respawn: %w", err)
			}
			continue
		}

		if fed >= script.Len() {
			log.Info("input script exhausted", zap.Int("step", ctrl.Cursor()))
			return nil
		}
		ctrl.SetInput(script.At(fed))
		fed++
		err := ctrl.Step()
		var a *sim.Anomaly
		if err != nil && !errors.As(err, &a) {
			return err
		}
	}
	log.Warn("step cap reached", zap.Int("max_steps", cfg.MaxSteps))
	return nil
}

func exportTimelines(ctrl *sim.Controller, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := ctrl.ExportTSV(f); err != nil {
		f.Close()
		return fmt.Errorf("export timelines: %w", err)
	}
	return f.Close()
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server", zap.Error(err))
	}
}

// runHooks reports simulation notifications on the console log.
type runHooks struct {
	log *zap.Logger
}

func (h *runHooks) OnRewindEffect(on bool) {
	h.log.Debug("rewind effect", zap.Bool("on", on))
}

func (h *runHooks) OnMachineOpened(id ecs.EntityID) {
	h.log.Debug("machine opened", zap.Int32("machine", int32(id)))
}

func (h *runHooks) OnAnomaly(a *sim.Anomaly) {
	h.log.Info("paradox", zap.String("title", a.Title), zap.String("cause", a.Cause))
}

func (h *runHooks) OnLevelComplete(level string, steps int) {
	h.log.Info("exit reached", zap.String("level", level), zap.Int("steps", steps))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
