package config_test

import (
	"testing"

	"github.com/lorolabs/loro/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()

	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.SessionChanged {
		t.Error("expected SessionChanged=false for identical configs")
	}
	if d.RestartRequired {
		t.Error("expected RestartRequired=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
	if d.RestartRequired {
		t.Error("log level changes should not require a restart")
	}
}

func TestDiff_SessionChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Session.BaseName = "toma_dos"
	new.Session.DurationSeconds = 10

	d := config.Diff(old, new)
	if !d.SessionChanged {
		t.Error("expected SessionChanged=true")
	}
	if d.NewSession.BaseName != "toma_dos" {
		t.Errorf("NewSession.BaseName: got %q, want %q", d.NewSession.BaseName, "toma_dos")
	}
	if d.NewSession.DurationSeconds != 10 {
		t.Errorf("NewSession.DurationSeconds: got %.2f, want 10", d.NewSession.DurationSeconds)
	}
	if d.RestartRequired {
		t.Error("session changes should not require a restart")
	}
}

func TestDiff_AudioChangeRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Audio.SampleRate = 16000

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true for audio change")
	}
}

func TestDiff_TranscriberChangeRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Transcriber.Kind = config.TranscriberOpenAI
	new.Transcriber.APIKey = "sk-test"

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true for transcriber change")
	}
}

func TestDiff_FallbackAddedRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Transcriber.Fallback = &config.TranscriberConfig{
		Kind:   config.TranscriberOpenAI,
		APIKey: "sk-test",
	}

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true when a fallback is added")
	}
}

func TestDiff_ListenAddrChangeRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.ListenAddr = ":9090"

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true for listen_addr change")
	}
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false")
	}
}

func TestDiff_TLSAddedRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.TLS = &config.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true when TLS is added")
	}
}

func TestDiff_HistoryChangeRequiresRestart(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.History.Dir = "/var/lib/loro/history"

	d := config.Diff(old, new)
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true for history change")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.LogLevel = config.LogWarn
	new.Session.Language = "es-ES"
	new.Audio.ChunkFrames = 2048

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.SessionChanged {
		t.Error("expected SessionChanged=true")
	}
	if !d.RestartRequired {
		t.Error("expected RestartRequired=true")
	}
}
