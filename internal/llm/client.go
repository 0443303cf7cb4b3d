// Package llm forwards inflation theories to the Gemini API and parses the
// structured reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"
)

// APIKeyEnvVars are consulted in order when no key is configured.
var APIKeyEnvVars = []string{"INFLATON_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

var (
	// ErrNoAPIKey is returned when no credential could be found.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrEmptyReply is returned when the model answers without text.
	ErrEmptyReply = errors.New("empty response from API")
)

// Analyzer derives the observables of an inflation theory.
type Analyzer interface {
	Analyze(ctx context.Context, theory string) (*cosmo.CalculationResponse, error)
}

// ContentGenerator is the subset of genai.Models used by Client.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string        // Overrides the Gemini endpoint when set
	Timeout time.Duration // Zero means no timeout
	Logger  *zap.Logger
}

// Client is a Gemini API client returning parsed calculation responses.
type Client struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// NewClient creates a Gemini client.
// When opts.APIKey is empty the key is read from APIKeyEnvVars.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		apiKey = keyFromEnv()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set one of %s", ErrNoAPIKey, strings.Join(APIKeyEnvVars, ", "))
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return NewClientWithGenerator(gc.Models, opts), nil
}

// NewClientWithGenerator creates a client around an existing generator.
func NewClientWithGenerator(models ContentGenerator, opts Options) *Client {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		models:  models,
		model:   model,
		timeout: opts.Timeout,
		log:     log,
	}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends one request for the theory and parses the reply.
func (c *Client) Analyze(ctx context.Context, theory string) (*cosmo.CalculationResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}

	start := time.Now()
	c.log.Debug("requesting derivation", zap.String("model", c.model), zap.Int("input_len", len(theory)))

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(BuildPrompt(theory)), config)
	if err != nil {
		c.log.Warn("generate content failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	text := replyText(resp)
	if text == "" {
		return nil, ErrEmptyReply
	}

	result, err := cosmo.Decode([]byte(text))
	if err != nil {
		c.log.Warn("reply did not match schema", zap.Error(err), zap.Int("reply_len", len(text)))
		return nil, err
	}

	c.log.Info("derivation complete",
		zap.String("theory", result.TheoryName),
		zap.Int("steps", len(result.DerivationSteps)),
		zap.Int("points", len(result.SpectrumData)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func keyFromEnv() string {
	for _, name := range APIKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// KeySource names where the API key will be read from: "config" when
// configured is set, else the first environment variable holding one.
// It returns "" when no key is available.
func KeySource(configured string) string {
	if strings.TrimSpace(configured) != "" {
		return "config"
	}
	for _, name := range APIKeyEnvVars {
		if strings.TrimSpace(os.Getenv(name)) != "" {
			return name
		}
	}
	return ""
}

// Unavailable returns an Analyzer that fails every request with err.
// It stands in for a client that could not be created.
func Unavailable(err error) Analyzer {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) Analyze(context.Context, string) (*cosmo.CalculationResponse, error) {
	return nil, u.err
}
