package config

// ConfigDiff describes what changed between two configs.
// Log level and session defaults can be hot-reloaded; changes to any other
// section set RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	SessionChanged bool
	NewSession     SessionConfig

	// RestartRequired is set when the server, audio, transcriber, history,
	// or telemetry sections changed. Those are wired once at startup.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Session defaults
	if old.Session != new.Session {
		d.SessionChanged = true
		d.NewSession = new.Session
	}

	// Everything else requires a restart to take effect.
	if !serverEqual(old.Server, new.Server) ||
		old.Audio != new.Audio ||
		!transcriberEqual(&old.Transcriber, &new.Transcriber) ||
		old.History != new.History ||
		old.Telemetry != new.Telemetry {
		d.RestartRequired = true
	}

	return d
}

// serverEqual compares server configs ignoring the hot-reloadable log level.
func serverEqual(old, new ServerConfig) bool {
	if old.ListenAddr != new.ListenAddr {
		return false
	}
	switch {
	case old.TLS == nil && new.TLS == nil:
		return true
	case old.TLS == nil || new.TLS == nil:
		return false
	}
	return *old.TLS == *new.TLS
}

// transcriberEqual compares two transcriber chains node by node.
func transcriberEqual(old, new *TranscriberConfig) bool {
	switch {
	case old == nil && new == nil:
		return true
	case old == nil || new == nil:
		return false
	}
	if old.Kind != new.Kind ||
		old.ServerURL != new.ServerURL ||
		old.ModelPath != new.ModelPath ||
		old.APIKey != new.APIKey ||
		old.BaseURL != new.BaseURL ||
		old.Model != new.Model ||
		old.TimeoutSeconds != new.TimeoutSeconds {
		return false
	}
	return transcriberEqual(old.Fallback, new.Fallback)
}
