package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	reply    string
	err      error
	model    string
	prompt   string
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

const validReply = `{"theoryName":"Starobinsky","potentialForm":"R^2","derivationSteps":[{"title":"Potential","content":"..."}],"observables":{"ns":0.965,"r":0.003,"As":2.1e-9},"spectrumData":[{"k":0.05,"scalar":2.1e-9,"tensor":6.3e-12}],"interpretation":"ok"}`

func TestAnalyze(t *testing.T) {
	fake := &fakeModels{reply: validReply}
	c := NewClientWithGenerator(fake, Options{})

	got, err := c.Analyze(context.Background(), "Starobinsky Inflation")
	require.NoError(t, err)

	assert.Equal(t, "Starobinsky", got.TheoryName)
	assert.Equal(t, 0.003, got.Observables.R)
	assert.Equal(t, DefaultModel, fake.model)
	assert.Contains(t, fake.prompt, "Starobinsky Inflation")
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, []string{"theoryName", "observables", "spectrumData", "derivationSteps"}, fake.config.ResponseSchema.Required)
	assert.False(t, fake.deadline)
}

func TestAnalyzeTimeout(t *testing.T) {
	fake := &fakeModels{reply: validReply}
	c := NewClientWithGenerator(fake, Options{Model: "gemini-test", Timeout: time.Minute})

	_, err := c.Analyze(context.Background(), "chaotic inflation")
	require.NoError(t, err)
	assert.True(t, fake.deadline)
	assert.Equal(t, "gemini-test", c.Model())
}

func TestAnalyzeTransportError(t *testing.T) {
	fake := &fakeModels{err: errors.New("network timeout")}
	c := NewClientWithGenerator(fake, Options{})

	_, err := c.Analyze(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "network timeout", err.Error())
}

func TestAnalyzeEmptyReply(t *testing.T) {
	c := NewClientWithGenerator(&fakeModels{reply: "  "}, Options{})

	_, err := c.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestAnalyzeSchemaMismatch(t *testing.T) {
	c := NewClientWithGenerator(&fakeModels{reply: `{"theoryName":"x"}`}, Options{})

	_, err := c.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, cosmo.ErrMissingField)
}

func TestNewClientRequiresKey(t *testing.T) {
	for _, name := range APIKeyEnvVars {
		t.Setenv(name, "")
	}

	_, err := NewClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestReplyTextSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `{"a":1}`},
			}},
		}},
	}
	assert.Equal(t, `{"a":1}`, replyText(resp))
	assert.Equal(t, "", replyText(nil))
	assert.Equal(t, "", replyText(&genai.GenerateContentResponse{}))
}

func TestKeySource(t *testing.T) {
	for _, name := range APIKeyEnvVars {
		t.Setenv(name, "")
	}
	assert.Equal(t, "", KeySource(""))
	assert.Equal(t, "config", KeySource("abc"))

	t.Setenv("GOOGLE_API_KEY", "k")
	assert.Equal(t, "GOOGLE_API_KEY", KeySource(" "))
	t.Setenv("GEMINI_API_KEY", "k")
	assert.Equal(t, "GEMINI_API_KEY", KeySource(""))
}

func TestUnavailable(t *testing.T) {
	a := Unavailable(ErrNoAPIKey)
	resp, err := a.Analyze(context.Background(), "anything")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
