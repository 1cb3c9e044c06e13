// Command loro records one telephony-band voice take end to end: device
// warm-up, countdown, 8 kHz capture, signal conditioning, artifact
// persistence, transcription, pitch-shifted synthesis and playback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/lorolabs/loro/internal/bridge"
	"github.com/lorolabs/loro/internal/config"
	"github.com/lorolabs/loro/internal/engine"
	"github.com/lorolabs/loro/internal/history"
	"github.com/lorolabs/loro/internal/observe"
	"github.com/lorolabs/loro/internal/resilience"
	"github.com/lorolabs/loro/pkg/audio"
	"github.com/lorolabs/loro/pkg/audio/portaudio"
	"github.com/lorolabs/loro/pkg/provider/transcribe"
	"github.com/lorolabs/loro/pkg/provider/transcribe/openai"
	"github.com/lorolabs/loro/pkg/provider/transcribe/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "loro.yaml", "path to the YAML configuration file")
	baseName := flag.String("base", "", "artifact base name (overrides config)")
	duration := flag.Float64("duration", 0, "recording duration in seconds (overrides config)")
	outputDir := flag.String("out", "", "output directory (overrides config)")
	language := flag.String("lang", "", "transcription language tag (overrides config)")
	skipPlayback := flag.Bool("skip-playback", false, "skip playing the synthesized take")
	recentRuns := flag.Int("recent", 0, "list the last N recorded sessions and exit")
	flag.Parse()

	// Provider secrets may live in a .env next to the binary; a missing file
	// is the normal case.
	_ = godotenv.Load()

	// ── Load configuration ──────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	cfgFromFile := err == nil
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "loro: %v\n", err)
			return 1
		}
		cfg = config.Default()
	}

	if *baseName != "" {
		cfg.Session.BaseName = *baseName
	}
	if *duration > 0 {
		cfg.Session.DurationSeconds = *duration
	}
	if *outputDir != "" {
		cfg.Session.OutputDir = *outputDir
	}
	if *language != "" {
		cfg.Session.Language = *language
	}
	if *skipPlayback {
		cfg.Session.SkipPlayback = true
	}

	// ── Logger ──────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	if !cfgFromFile {
		slog.Info("config file not found; using built-in defaults", "path", *configPath)
	}
	slog.Info("loro starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Recent-session listing (no recording) ───────────────────────────────────
	if *recentRuns > 0 {
		return printRecent(cfg.History.Dir, *recentRuns)
	}

	// ── Signal context ──────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ───────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Device and transcriber ──────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltins(reg)

	device, err := reg.CreateDevice(cfg.Audio)
	if err != nil {
		slog.Error("failed to open audio device", "backend", cfg.Audio.Backend, "err", err)
		return 1
	}
	defer func() {
		if err := device.Close(); err != nil {
			slog.Warn("audio device close error", "err", err)
		}
	}()

	transcriber, transcriberName, err := buildTranscriber(reg, cfg.Transcriber)
	if err != nil {
		slog.Error("failed to build transcriber", "err", err)
		return 1
	}
	if transcriber != nil {
		defer func() {
			if err := transcriber.Close(); err != nil {
				slog.Warn("transcriber close error", "err", err)
			}
		}()
		slog.Info("transcriber ready", "kind", transcriberName)
	} else {
		slog.Info("transcription disabled; recordings will not be transcribed")
	}

	// ── Session history ─────────────────────────────────────────────────────────
	var store *history.Store
	if cfg.History.Dir != "" {
		store, err = history.Open(cfg.History.Dir)
		if err != nil {
			slog.Error("failed to open history store", "dir", cfg.History.Dir, "err", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("history store close error", "err", err)
			}
		}()
	}

	// ── Bridge (optional) ───────────────────────────────────────────────────────
	observer := engine.Observer(engine.NopObserver{})
	var bridgeErr chan error
	bridgeCtx, bridgeCancel := context.WithCancel(ctx)
	defer bridgeCancel()
	if cfg.Server.ListenAddr != "" {
		srv := bridge.New(cfg.Server,
			bridge.WithMetrics(metrics),
			bridge.WithProbe(bridge.Probe{Name: "device", Check: func(context.Context) error {
				if device == nil {
					return errors.New("no audio device")
				}
				return nil
			}}),
			bridge.WithProbe(bridge.Probe{Name: "history", Check: func(context.Context) error {
				if cfg.History.Dir != "" && store == nil {
					return errors.New("history store not open")
				}
				return nil
			}}),
		)
		observer = srv.Observer()
		bridgeErr = make(chan error, 1)
		go func() { bridgeErr <- srv.Run(bridgeCtx) }()
	}

	// ── Config watcher ──────────────────────────────────────────────────────────
	// Long captures benefit from flipping the log level mid-run; everything
	// else in the file is wired once at startup.
	if cfgFromFile {
		watcher, werr := config.NewWatcher(*configPath, func(d config.ConfigDiff, _ *config.Config) {
			if d.LogLevelChanged {
				level.Set(slogLevel(d.NewLogLevel))
				slog.Info("log level updated", "level", d.NewLogLevel)
			}
			if d.SessionChanged {
				slog.Debug("session defaults changed; they apply to the next invocation")
			}
			if d.RestartRequired {
				slog.Warn("config change requires a restart to take effect")
			}
		})
		if werr != nil {
			slog.Warn("config watcher unavailable", "err", werr)
		} else {
			defer watcher.Stop()
		}
	}

	// ── Run the session ─────────────────────────────────────────────────────────
	printStartupSummary(cfg, transcriberName)

	engOpts := []engine.Option{
		engine.WithObserver(observer),
		engine.WithMetrics(metrics),
		engine.WithSampleRate(cfg.Audio.SampleRate),
	}
	if transcriber != nil {
		engOpts = append(engOpts, engine.WithTranscriber(transcriberName, transcriber))
	}
	eng := engine.New(device, engOpts...)

	sess := engine.Session{
		BaseName:     cfg.Session.BaseName,
		Seconds:      cfg.Session.DurationSeconds,
		OutputDir:    cfg.Session.OutputDir,
		Language:     cfg.Session.Language,
		SkipPlayback: cfg.Session.SkipPlayback,
	}

	startedAt := time.Now()
	res := eng.RunSession(ctx, sess)
	finishedAt := time.Now()

	if store != nil {
		if err := store.Append(history.FromResult(sess, res, startedAt, finishedAt)); err != nil {
			slog.Warn("history append failed", "err", err)
		}
	}

	// Let the bridge drain and stop before the process exits.
	bridgeCancel()
	if bridgeErr != nil {
		if err := <-bridgeErr; err != nil {
			slog.Warn("bridge shutdown error", "err", err)
		}
	}

	if !res.OK {
		fmt.Fprintf(os.Stderr, "loro: session failed: %v\n", res.Err)
		return 1
	}

	printArtifacts(res)
	return 0
}

// ── Provider wiring ─────────────────────────────────────────────────────────────

// registerBuiltins wires the device and transcriber factories that ship with
// Loro into reg.
func registerBuiltins(reg *config.Registry) {
	reg.RegisterDevice("portaudio", func(ac config.AudioConfig) (audio.Device, error) {
		var opts []portaudio.Option
		if ac.ChunkFrames > 0 {
			opts = append(opts, portaudio.WithChunkFrames(ac.ChunkFrames))
		}
		return portaudio.New(audio.Config{
			SampleRate: ac.SampleRate,
			Latency:    ac.Latency.Device(),
		}, opts...)
	})

	reg.RegisterTranscriber(config.TranscriberWhisper, func(tc config.TranscriberConfig) (transcribe.Provider, error) {
		var opts []whisper.Option
		if tc.Model != "" {
			opts = append(opts, whisper.WithModel(tc.Model))
		}
		if tc.TimeoutSeconds > 0 {
			opts = append(opts, whisper.WithTimeout(time.Duration(tc.TimeoutSeconds)*time.Second))
		}
		return whisper.New(tc.ServerURL, opts...)
	})

	reg.RegisterTranscriber(config.TranscriberWhisperNative, func(tc config.TranscriberConfig) (transcribe.Provider, error) {
		return whisper.NewNative(tc.ModelPath)
	})

	reg.RegisterTranscriber(config.TranscriberOpenAI, func(tc config.TranscriberConfig) (transcribe.Provider, error) {
		key := tc.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		var opts []openai.Option
		if tc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(tc.BaseURL))
		}
		if tc.Model != "" {
			opts = append(opts, openai.WithModel(tc.Model))
		}
		if tc.TimeoutSeconds > 0 {
			opts = append(opts, openai.WithTimeout(time.Duration(tc.TimeoutSeconds)*time.Second))
		}
		return openai.New(key, opts...)
	})
}

// buildTranscriber assembles the configured transcription chain. It returns a
// nil provider when transcription is disabled. When the config declares
// fallbacks, the chain is wrapped in a circuit-breaking failover group.
func buildTranscriber(reg *config.Registry, tc config.TranscriberConfig) (transcribe.Provider, string, error) {
	if tc.Kind == "" || tc.Kind == config.TranscriberNone {
		return nil, "", nil
	}

	primary, err := reg.CreateTranscriber(tc)
	if err != nil {
		return nil, "", fmt.Errorf("create transcriber %q: %w", tc.Kind, err)
	}
	if tc.Fallback == nil {
		return primary, string(tc.Kind), nil
	}

	chain := resilience.NewTranscribeFallback(primary, string(tc.Kind), resilience.FallbackConfig{})
	for fb := tc.Fallback; fb != nil; fb = fb.Fallback {
		p, err := reg.CreateTranscriber(*fb)
		if err != nil {
			return nil, "", fmt.Errorf("create fallback transcriber %q: %w", fb.Kind, err)
		}
		chain.AddFallback(string(fb.Kind), p)
		slog.Info("transcription fallback registered", "kind", fb.Kind)
	}
	return chain, string(tc.Kind), nil
}

// ── Output ──────────────────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, transcriber string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Loro — session setup         ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Base name", cfg.Session.BaseName)
	printField("Duration", fmt.Sprintf("%.1f s + pre-roll", cfg.Session.DurationSeconds))
	printField("Output dir", cfg.Session.OutputDir)
	printField("Language", cfg.Session.Language)
	if transcriber == "" {
		transcriber = "(disabled)"
	}
	printField("Transcriber", transcriber)
	if cfg.History.Dir != "" {
		printField("History", cfg.History.Dir)
	} else {
		printField("History", "(disabled)")
	}
	if cfg.Server.ListenAddr != "" {
		printField("Bridge", cfg.Server.ListenAddr)
	} else {
		printField("Bridge", "(disabled)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", name, value)
}

// printArtifacts lists what the run left on disk.
func printArtifacts(res engine.Result) {
	if res.EmptySignal {
		fmt.Println("the take trimmed to silence; no synthesis was produced")
	}
	fmt.Println("artifacts:")
	fmt.Println("  audio      :", res.WAVPath)
	fmt.Println("  matrix     :", res.CSVPath)
	if res.TranscriptPath != "" {
		fmt.Println("  transcript :", res.TranscriptPath)
	}
	if res.SynthPath != "" {
		fmt.Println("  synthesis  :", res.SynthPath)
	}
	if res.Transcript != "" {
		fmt.Printf("transcript: %q\n", res.Transcript)
	}
}

// printRecent lists the latest n history records without recording anything.
func printRecent(dir string, n int) int {
	if dir == "" {
		fmt.Fprintln(os.Stderr, "loro: history is disabled in the configuration")
		return 1
	}
	store, err := history.Open(dir)
	if err != nil {
		slog.Error("failed to open history store", "dir", dir, "err", err)
		return 1
	}
	defer store.Close()

	recs, err := store.Recent(n)
	if err != nil {
		slog.Error("failed to list history", "err", err)
		return 1
	}
	if len(recs) == 0 {
		fmt.Println("no recorded sessions")
		return 0
	}
	for _, r := range recs {
		status := "ok"
		switch {
		case !r.OK:
			status = "failed"
		case r.EmptySignal:
			status = "empty"
		}
		transcript := ""
		if r.HasTranscript {
			transcript = "transcript"
		}
		fmt.Printf("%s  %-20s  %-6s  %6.2fs  %s  %s\n",
			r.FinishedAt.Format(time.RFC3339), r.BaseName, status, r.Seconds, r.SessionID, transcript)
	}
	return 0
}

// ── Logger ──────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
