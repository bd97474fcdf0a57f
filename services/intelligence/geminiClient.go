package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freshfade/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NLUClient sends one typed request to the language model and returns its raw text.
type NLUClient interface {
	Complete(ctx context.Context, req models.NLURequest) (string, error)
}

// ErrNLUNotConfigured is returned when no API key was provided.
var ErrNLUNotConfigured = errors.New("nlu client not configured")

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNLUNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

// Complete asks Gemini for a JSON object matching intentSchema.
func (g *GeminiClient) Complete(ctx context.Context, req models.NLURequest) (string, error) {
	// A model value per request: GenerativeModel fields are not safe to mutate concurrently.
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Instruction)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = intentSchema()
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(RenderRequest(req)))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func intentSchema() *genai.Schema {
	optionalString := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: true}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reply":             {Type: genai.TypeString, Description: "what to say to the caller"},
			"name":              optionalString("caller's name"),
			"service":           optionalString("requested service, lower case"),
			"requested_time":    optionalString("absolute ISO-8601 timestamp with offset"),
			"booking_intent":    {Type: genai.TypeBoolean},
			"need_confirmation": {Type: genai.TypeBoolean},
			"booking_confirmed": {Type: genai.TypeBoolean},
			"missing_slot": {
				Type:     genai.TypeString,
				Format:   "enum",
				Enum:     []string{"name", "service", "time"},
				Nullable: true,
			},
		},
		Required: []string{"reply", "booking_intent", "need_confirmation", "booking_confirmed"},
	}
}
