package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, overlaying its values onto
// [Default], and validates the result. An empty reader yields the defaults.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Audio
	if cfg.Audio.Backend == "" {
		errs = append(errs, errors.New("audio.backend is required"))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Latency != "" && !cfg.Audio.Latency.IsValid() {
		errs = append(errs, fmt.Errorf("audio.latency %q is invalid; valid values: low, high", cfg.Audio.Latency))
	}
	if cfg.Audio.ChunkFrames < 0 {
		errs = append(errs, fmt.Errorf("audio.chunk_frames %d must not be negative", cfg.Audio.ChunkFrames))
	}
	if cfg.Audio.SampleRate > 0 && cfg.Audio.SampleRate < 8000 {
		slog.Warn("audio.sample_rate is below the telephony band; transcription quality may suffer",
			"sample_rate", cfg.Audio.SampleRate,
		)
	}

	// Session
	if cfg.Session.BaseName == "" {
		errs = append(errs, errors.New("session.base_name is required"))
	}
	if cfg.Session.DurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("session.duration_seconds %.2f must not be negative", cfg.Session.DurationSeconds))
	}
	if cfg.Session.OutputDir == "" {
		errs = append(errs, errors.New("session.output_dir is required"))
	}
	if cfg.Session.Language == "" {
		slog.Warn("session.language is empty; the transcriber's built-in default will apply")
	}

	// Transcriber chain
	errs = append(errs, validateTranscriber("transcriber", &cfg.Transcriber)...)

	// History availability
	if cfg.History.Dir == "" {
		slog.Warn("history.dir is empty; past sessions will not be recorded")
	}

	return errors.Join(errs...)
}

// validateTranscriber checks one node of the transcriber fallback chain and
// recurses into its fallback. prefix names the node in error messages, e.g.
// "transcriber.fallback".
func validateTranscriber(prefix string, tc *TranscriberConfig) []error {
	var errs []error

	if tc.Kind != "" && !tc.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("%s.kind %q is invalid; valid values: whisper, whisper-native, openai, none", prefix, tc.Kind))
		return errs
	}
	if tc.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout_seconds %d must not be negative", prefix, tc.TimeoutSeconds))
	}

	switch tc.Kind {
	case TranscriberWhisper:
		if tc.ServerURL == "" {
			errs = append(errs, fmt.Errorf("%s.server_url is required when kind is whisper", prefix))
		}
	case TranscriberWhisperNative:
		if tc.ModelPath == "" {
			errs = append(errs, fmt.Errorf("%s.model_path is required when kind is whisper-native", prefix))
		}
	case TranscriberOpenAI:
		if tc.APIKey == "" {
			slog.Warn("transcriber api_key is empty; the OPENAI_API_KEY environment variable will be used",
				"transcriber", prefix,
			)
		}
	case TranscriberNone:
		if tc.Fallback != nil {
			errs = append(errs, fmt.Errorf("%s.fallback is not allowed when kind is none", prefix))
		}
	}

	if tc.Fallback != nil && tc.Kind != TranscriberNone {
		if tc.Fallback.Kind == TranscriberNone {
			errs = append(errs, fmt.Errorf("%s.fallback.kind must name a backend; omit the fallback to disable it", prefix))
		} else {
			errs = append(errs, validateTranscriber(prefix+".fallback", tc.Fallback)...)
		}
	}

	return errs
}
