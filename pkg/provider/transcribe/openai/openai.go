// Package openai provides a transcription provider backed by the OpenAI
// audio API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lorolabs/loro/pkg/provider/transcribe"
)

const defaultLanguage = "es-MX"

// Compile-time assertion that Provider implements transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// Provider implements transcribe.Provider using the OpenAI audio API. The
// recorded file is uploaded as-is; the hosted service handles decoding.
type Provider struct {
	client   oai.Client
	model    oai.AudioModel
	language string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL  string
	model    string
	language string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel sets the transcription model. Defaults to whisper-1.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithLanguage sets the fallback BCP-47 language tag used when Transcribe is
// called with an empty language. Defaults to "es-MX".
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI transcription Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	model := oai.AudioModelWhisper1
	if cfg.model != "" {
		model = oai.AudioModel(cfg.model)
	}
	language := defaultLanguage
	if cfg.language != "" {
		language = cfg.language
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model, language: language}, nil
}

// Transcribe implements transcribe.Provider. The hosted API only understands
// bare ISO 639-1 codes, so the language tag is reduced to its primary subtag.
func (p *Provider) Transcribe(ctx context.Context, path, language string) (string, error) {
	lang := language
	if lang == "" {
		lang = p.language
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("openai: open %q: %w", path, err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:  f,
		Model: p.model,
	}
	if lang != "" {
		params.Language = oai.String(transcribe.PrimarySubtag(lang))
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Close implements transcribe.Provider. The provider holds no resources.
func (p *Provider) Close() error {
	return nil
}
