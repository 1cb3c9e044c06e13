// Package config provides the configuration schema, loader, and provider
// registry for the Loro recording pipeline.
package config

import "github.com/lorolabs/loro/pkg/audio"

// LogLevel controls log verbosity for the Loro process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Latency selects the capture stream's latency preference.
type Latency string

const (
	// LatencyLow prioritises responsiveness (smaller hardware buffers).
	LatencyLow Latency = "low"

	// LatencyHigh prioritises stability (larger hardware buffers).
	LatencyHigh Latency = "high"
)

// IsValid reports whether l is a recognised latency preference.
func (l Latency) IsValid() bool {
	return l == LatencyLow || l == LatencyHigh
}

// Device maps the config value onto the audio package's latency enum.
// Anything other than "low" selects the stable high-latency buffers.
func (l Latency) Device() audio.Latency {
	if l == LatencyLow {
		return audio.LatencyLow
	}
	return audio.LatencyHigh
}

// TranscriberKind selects the speech-to-text backend for a recording.
type TranscriberKind string

const (
	// TranscriberWhisper talks to a running whisper-server over HTTP.
	TranscriberWhisper TranscriberKind = "whisper"

	// TranscriberWhisperNative loads a whisper.cpp model in-process (CGO).
	TranscriberWhisperNative TranscriberKind = "whisper-native"

	// TranscriberOpenAI uploads recordings to the OpenAI audio API.
	TranscriberOpenAI TranscriberKind = "openai"

	// TranscriberNone disables transcription; recordings are still saved.
	TranscriberNone TranscriberKind = "none"
)

// IsValid reports whether k is a recognised transcriber kind.
func (k TranscriberKind) IsValid() bool {
	switch k {
	case TranscriberWhisper, TranscriberWhisperNative, TranscriberOpenAI, TranscriberNone:
		return true
	}
	return false
}

// Config is the root configuration structure for Loro.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Audio       AudioConfig       `yaml:"audio"`
	Session     SessionConfig     `yaml:"session"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	History     HistoryConfig     `yaml:"history"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings for the bridge server.
type ServerConfig struct {
	// ListenAddr is the TCP address the bridge listens on (e.g., ":8090").
	// When empty the bridge is disabled and Loro runs as a plain CLI.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the bridge. When nil, the bridge runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// AudioConfig holds capture and playback hardware settings.
type AudioConfig struct {
	// Backend names the registered audio device implementation.
	Backend string `yaml:"backend"`

	// SampleRate is the capture rate in Hz. Telephony-band voice uses 8000.
	SampleRate int `yaml:"sample_rate"`

	// Latency is the capture stream's latency preference ("low" or "high").
	// Warm-up always runs at low latency regardless of this setting.
	Latency Latency `yaml:"latency"`

	// ChunkFrames is the number of frames transferred per device read/write.
	ChunkFrames int `yaml:"chunk_frames"`
}

// SessionConfig holds the per-recording defaults. Each field can be
// overridden per run via CLI flags.
type SessionConfig struct {
	// BaseName is the stem for all artifacts a recording produces:
	// <base>.wav, <base>_matriz.csv, <base>.txt, <base>_synth.wav.
	BaseName string `yaml:"base_name"`

	// DurationSeconds is the requested recording duration. The capture
	// itself adds half a second of pre-roll on top.
	DurationSeconds float64 `yaml:"duration_seconds"`

	// Language is the BCP-47 tag passed to the transcriber (e.g., "es-MX").
	Language string `yaml:"language"`

	// OutputDir is the directory artifacts are written to. Created on
	// demand.
	OutputDir string `yaml:"output_dir"`

	// SkipPlayback suppresses the final playback of the synthesized take.
	SkipPlayback bool `yaml:"skip_playback"`
}

// TranscriberConfig selects and configures the speech-to-text backend.
type TranscriberConfig struct {
	// Kind selects the backend implementation.
	Kind TranscriberKind `yaml:"kind"`

	// ServerURL is the whisper-server address. Used when Kind is "whisper".
	ServerURL string `yaml:"server_url"`

	// ModelPath is the whisper.cpp model file. Used when Kind is
	// "whisper-native".
	ModelPath string `yaml:"model_path"`

	// APIKey authenticates against hosted APIs. Used when Kind is "openai";
	// when empty the OPENAI_API_KEY environment variable applies.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the hosted API endpoint. Used when Kind is "openai".
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the backend (e.g., "base",
	// "whisper-1").
	Model string `yaml:"model"`

	// TimeoutSeconds bounds each transcription request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Fallback names a secondary backend tried when this one fails. Chains
	// may nest.
	Fallback *TranscriberConfig `yaml:"fallback"`
}

// HistoryConfig holds settings for the on-disk session history store.
type HistoryConfig struct {
	// Dir is the Badger database directory. An explicitly empty value
	// disables history.
	Dir string `yaml:"dir"`
}

// TelemetryConfig holds settings for metrics and tracing.
type TelemetryConfig struct {
	// ServiceName is the service name reported in telemetry.
	ServiceName string `yaml:"service_name"`
}

// Default returns a Config populated with the out-of-the-box values: an
// 8 kHz low-latency capture, a three second "grabacion_final" take in
// Mexican Spanish, a local whisper-server transcriber, and history under
// .loro/history. Loading a YAML file overlays onto these values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Audio: AudioConfig{
			Backend:     "portaudio",
			SampleRate:  8000,
			Latency:     LatencyLow,
			ChunkFrames: 1024,
		},
		Session: SessionConfig{
			BaseName:        "grabacion_final",
			DurationSeconds: 3,
			Language:        "es-MX",
			OutputDir:       ".",
		},
		Transcriber: TranscriberConfig{
			Kind:           TranscriberWhisper,
			ServerURL:      "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		History: HistoryConfig{
			Dir: ".loro/history",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "loro",
		},
	}
}
