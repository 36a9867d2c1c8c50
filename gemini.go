/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Seednode/kingsgame/games/kings"
	"google.golang.org/genai"
)

// punishmentSchema constrains replies to one text per language plus an emoji.
var punishmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"ko":    {Type: genai.TypeString},
		"en":    {Type: genai.TypeString},
		"tl":    {Type: genai.TypeString},
		"emoji": {Type: genai.TypeString},
	},
	Required: []string{"ko", "en", "tl", "emoji"},
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// newGeminiGenerator builds a generator against the Gemini API. An empty
// baseURL uses the public endpoint.
func newGeminiGenerator(ctx context.Context, apiKey, model, baseURL string) (*geminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiGenerator{
		client: client,
		model:  model,
	}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, req kings.Request) (kings.Punishment, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt()), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   punishmentSchema,
	})
	if err != nil {
		return kings.Punishment{}, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return kings.Punishment{}, fmt.Errorf("%w: empty response", kings.ErrMalformedReply)
	}

	var p kings.Punishment
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return kings.Punishment{}, fmt.Errorf("%w: %v", kings.ErrMalformedReply, err)
	}

	return p, nil
}
