package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxDescriptionLen = 600

// GeminiProvider implements Copywriter using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.6)

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) DescribeProduct(ctx context.Context, brief ProductBrief) (*ProductCopy, error) {
	if strings.TrimSpace(brief.Name) == "" {
		return nil, errors.New("product name is required")
	}
	resp, err := p.model.GenerateContent(ctx, genai.Text(buildDescribePrompt(brief)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return parseProductCopy(text.String())
}

func parseProductCopy(raw string) (*ProductCopy, error) {
	clean := cleanJSONString(raw)
	var out ProductCopy
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	out.Description = strings.TrimSpace(out.Description)
	if out.Description == "" {
		return nil, errors.New("model returned an empty description")
	}
	if r := []rune(out.Description); len(r) > maxDescriptionLen {
		out.Description = strings.TrimSpace(string(r[:maxDescriptionLen]))
	}
	out.Tagline = strings.TrimSpace(out.Tagline)
	return &out, nil
}

func buildDescribePrompt(b ProductBrief) string {
	addon := b.AddonName
	if addon == "" {
		addon = "NONE"
	}
	current := b.Current
	if current == "" {
		current = "NONE"
	}
	category := b.Category
	if category == "" {
		category = "party equipment"
	}
	return fmt.Sprintf(`Role: You write product copy for "Party Saving Rental", a party equipment rental shop in the Carolinas, Georgia and Florida.
Product:
- Name: %s
- Category: %s
- Price: $%.2f per item per day
- Optional add-on: %s
- Current description: %s

RULES:
1. Write for customers planning birthdays, weddings and backyard events.
2. "description": 2 to 3 sentences, plain text, no markdown, at most %d characters.
3. "tagline": at most 8 words.
4. "keywords": up to 5 lowercase search keywords.
5. Never invent prices, discounts or delivery promises.

Output JSON Schema:
{
  "description": "string",
  "tagline": "string",
  "keywords": ["string"]
}
`, b.Name, category, b.BasePrice, addon, current, maxDescriptionLen)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
