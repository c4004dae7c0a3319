package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const tutorSystemPrompt = "Kamu adalah Vyna, tutor AI Matematika. Jawab dengan satu kalimat singkat dalam bahasa Indonesia, tanpa format dan simbol kompleks."

// Gemini generates acknowledgement utterances with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("engine: gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: init gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) GenerateReply(ctx context.Context, instructions string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(instructions), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(tutorSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	})
	if err != nil {
		return "", fmt.Errorf("engine: generate reply: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("engine: empty reply")
	}
	return text, nil
}
