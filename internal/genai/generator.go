// Package genai wraps the hosted generation services behind small ports.
//
// The orchestrator only sees the Generator interface; concrete backends are
// Gemini (default, also provides studio content and tour narration) and AWS
// Bedrock (optional fallback). Each call is independent and carries no
// client-side state, so one generator is safely shared across runs.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// Sentinel errors for the generation clients.
var (
	ErrMissingAPIKey  = errors.New("generation API credential is not configured")
	ErrEmptyContent   = errors.New("model returned no content")
	ErrMalformedReply = errors.New("model reply is not the expected JSON object")
)

// complianceDirective is the fixed instruction appended to every per-row
// request. The remote model enforces it; we only score-gate the result.
const complianceDirective = "Strictly adhere to BFSI compliance standards."

// systemInstruction frames the model for per-row message generation.
const systemInstruction = "You are an expert BFSI Marketing Specialist. Ensure compliance and personalization."

// Request is one per-row generation request: the row serialized as a JSON
// blob plus the campaign goal and tone.
type Request struct {
	CustomerJSON string
	Goal         string
	Tone         domain.Tone
}

// Result is the parsed model response. Content is required; the remaining
// fields are optional in the wire contract and default to zero when absent.
type Result struct {
	Content         string `json:"content"`
	ComplianceScore int    `json:"complianceScore"`
	AIConfidence    int    `json:"aiConfidence"`
	Reasoning       string `json:"reasoning"`
}

// Generator performs exactly one hosted-model call per request. No retries,
// no backoff: failures propagate to the orchestrator.
type Generator interface {
	GenerateMessage(ctx context.Context, req Request) (*Result, error)
}

// BuildRequest assembles the request payload for one row. The goal text may
// carry Liquid placeholders referencing row columns; they are rendered per
// row before the call. Callers guard against empty goals and empty datasets
// before generation starts, so this only fails on render errors.
func BuildRequest(renderer *PromptRenderer, row domain.RowRecord, cfg domain.CampaignConfig) (Request, error) {
	blob, err := json.Marshal(row)
	if err != nil {
		return Request{}, fmt.Errorf("serialize row: %w", err)
	}
	goal, err := renderer.RenderGoal(cfg.PromptText, row)
	if err != nil {
		return Request{}, fmt.Errorf("render goal: %w", err)
	}
	return Request{
		CustomerJSON: string(blob),
		Goal:         goal,
		Tone:         cfg.Tone,
	}, nil
}

// userPrompt renders the fixed per-row prompt body.
func userPrompt(req Request) string {
	return fmt.Sprintf(`Generate a personalized marketing message for the following customer:
CUSTOMER DATA: %s

CAMPAIGN GOAL: %s
DESIRED TONE: %s

%s`, req.CustomerJSON, req.Goal, req.Tone, complianceDirective)
}

// parseResult decodes the model reply and normalizes the optional fields.
// Scores outside [0,100] are clamped rather than rejected.
func parseResult(raw string) (*Result, error) {
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if res.Content == "" {
		return nil, ErrEmptyContent
	}
	res.ComplianceScore = clampScore(res.ComplianceScore)
	res.AIConfidence = clampScore(res.AIConfidence)
	return &res, nil
}

// unmarshalReply decodes a structured model reply into dst.
func unmarshalReply(raw string, dst interface{}) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

// rowsAsText serializes dataset rows as JSON lines for analysis prompts.
func rowsAsText(ds *domain.UploadedDataset) string {
	var b strings.Builder
	for _, row := range ds.Rows {
		blob, err := json.Marshal(row)
		if err != nil {
			continue
		}
		b.Write(blob)
		b.WriteByte('\n')
	}
	return b.String()
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
