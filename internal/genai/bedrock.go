package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// BedrockGenerator is the alternate Generator backed by AWS Bedrock
// (Claude). It is enabled via config for deployments that keep all
// customer data inside AWS.
type BedrockGenerator struct {
	client  *bedrockruntime.Client
	modelID string
	timeout time.Duration
}

// bedrockMessage mirrors the Anthropic messages wire format.
type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockGenerator builds a Bedrock-backed generator. Credentials come
// from the default AWS chain.
func NewBedrockGenerator(ctx context.Context, region, modelID string, timeout time.Duration) (*BedrockGenerator, error) {
	if region == "" {
		region = "us-east-1"
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	logger.Info("bedrock generator initialized", "model", modelID, "region", region)
	return &BedrockGenerator{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		timeout: timeout,
	}, nil
}

// GenerateMessage performs one per-row generation call via InvokeModel.
// Claude cannot be schema-constrained the way Gemini can, so the prompt
// demands a bare JSON object and the reply is scraped for one.
func (b *BedrockGenerator) GenerateMessage(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prompt := userPrompt(req) + `

Respond with ONLY a JSON object of the form:
{"content": "...", "complianceScore": 0-100, "aiConfidence": 0-100, "reasoning": "..."}`

	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           systemInstruction,
		Messages: []bedrockMessage{
			{
				Role: "user",
				Content: []bedrockContentBlock{
					{Type: "text", Text: prompt},
				},
			},
		},
		Temperature: 0.7,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("parse bedrock response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return nil, ErrEmptyContent
	}

	logger.Debug("bedrock message generated",
		"model", b.modelID,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)

	return parseResult(extractJSONObject(text))
}

// extractJSONObject pulls the first {...} span out of a model reply that
// may wrap it in prose or a code fence.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
