// Package transcribe defines the Provider interface for speech-to-text
// backends.
//
// A transcription provider wraps a recognition service (a local whisper.cpp
// model or server, or a hosted API) and exposes a uniform one-shot interface:
// hand it a recorded WAV file, get the recognized text back. Transcription in
// this pipeline is best-effort; callers are expected to treat a failure as
// non-fatal and carry on with the recording itself.
package transcribe

import "context"

// Provider is the abstraction over any speech-to-text backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Transcribe reads the audio file at path and returns the recognized
	// text. language is a BCP-47 tag (e.g., "es-MX"); providers that only
	// understand bare ISO 639-1 codes use the primary subtag. An empty
	// language lets the provider auto-detect, if supported.
	//
	// The returned text may be empty when the audio contains no
	// recognizable speech; that is not an error.
	Transcribe(ctx context.Context, path, language string) (string, error)

	// Close releases all resources held by the provider. Calling Close more
	// than once is safe.
	Close() error
}

// PrimarySubtag reduces a BCP-47 language tag to its primary subtag:
// "es-MX" becomes "es". Tags without a region pass through unchanged.
func PrimarySubtag(tag string) string {
	for i := range len(tag) {
		if tag[i] == '-' || tag[i] == '_' {
			return tag[:i]
		}
	}
	return tag
}
