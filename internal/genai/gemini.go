package genai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// GeminiOptions configures the Gemini-backed generator.
type GeminiOptions struct {
	APIKey   string
	Model    string
	TTSModel string
	Voice    string
	Timeout  time.Duration
}

// GeminiClient calls the Gemini API for per-row message generation, studio
// content, lead analysis and tour narration. The underlying SDK client is
// created lazily on the first call so a missing credential surfaces as a
// call-time failure rather than a startup crash.
type GeminiClient struct {
	opts GeminiOptions

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient builds a client. It never fails: credential and
// connectivity problems are reported by the first generation call.
func NewGeminiClient(opts GeminiOptions) *GeminiClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &GeminiClient{opts: opts}
}

func (g *GeminiClient) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: g.opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return client, nil
}

// messageSchema constrains per-row replies. Only content is required; the
// scores and reasoning are optional and default to zero when the model
// omits them.
func messageSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"content": {
				Type:        genai.TypeString,
				Description: "The generated marketing message",
			},
			"complianceScore": {
				Type:        genai.TypeInteger,
				Description: "Compliance score from 0 to 100",
			},
			"aiConfidence": {
				Type:        genai.TypeInteger,
				Description: "Model confidence from 0 to 100",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Short compliance reasoning",
			},
		},
		Required: []string{"content"},
	}
}

// GenerateMessage performs one per-row generation call.
func (g *GeminiClient) GenerateMessage(ctx context.Context, req Request) (*Result, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.opts.Model,
		genai.Text(userPrompt(req)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    messageSchema(),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, ErrEmptyContent
	}
	res, err := parseResult(raw)
	if err != nil {
		return nil, err
	}

	logger.Debug("gemini message generated",
		"model", g.opts.Model,
		"compliance_score", res.ComplianceScore,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// StudioRequest is a free-form single-asset request from the AI studio.
type StudioRequest struct {
	Channel string // "Email", "Social" or "Ad Copy"
	Topic   string
	Tone    domain.Tone
}

// StudioResult is the studio reply. Subject is only set for the Email
// channel and Hashtags only for Social.
type StudioResult struct {
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// GenerateStudioContent produces one standalone marketing asset.
func (g *GeminiClient) GenerateStudioContent(ctx context.Context, req StudioRequest) (*StudioResult, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Create %s marketing content about: %s
DESIRED TONE: %s

%s`, req.Channel, req.Topic, req.Tone, complianceDirective)

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subject": {
				Type:        genai.TypeString,
				Description: "Email subject line, empty for non-email channels",
			},
			"content": {
				Type:        genai.TypeString,
				Description: "The marketing copy",
			},
			"hashtags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Hashtags for social posts, empty otherwise",
			},
		},
		Required: []string{"content"},
	}

	resp, err := client.Models.GenerateContent(ctx, g.opts.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini studio generate: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, ErrEmptyContent
	}
	var out StudioResult
	if err := unmarshalReply(raw, &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		return nil, ErrEmptyContent
	}
	return &out, nil
}

// AnalyzeLeadStrategy asks the model for an outreach strategy across the
// uploaded rows. The reply is free-form markdown.
func (g *GeminiClient) AnalyzeLeadStrategy(ctx context.Context, ds *domain.UploadedDataset) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Analyze the following customer list and recommend a segmented outreach strategy.
Identify patterns across the customers and suggest how to group and approach them.

CUSTOMER LIST (%d rows from %s):
%s

%s`, ds.RowCount, ds.FileName, rowsAsText(ds), complianceDirective)

	resp, err := client.Models.GenerateContent(ctx, g.opts.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini lead analysis: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// Synthesize converts narration text to speech and returns raw PCM audio,
// 24kHz 16-bit little-endian mono.
func (g *GeminiClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	resp, err := client.Models.GenerateContent(ctx, g.opts.TTSModel,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: g.opts.Voice,
					},
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini tts: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyContent
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, ErrEmptyContent
}
