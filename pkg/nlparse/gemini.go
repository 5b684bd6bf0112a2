package nlparse

import (
	"context"
	"fmt"
	"strings"

	"github.com/famledger/famledger/pkg/transaction"
	log "github.com/sirupsen/logrus"
	aiplatform "google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"
)

const (
	DefaultModel    = "gemini-2.0-flash"
	publisherPrefix = "publishers/google/models/"
)

// GeminiParser asks a Gemini model on Vertex AI for a schema constrained JSON
// answer. An API key authenticates in Vertex AI express mode.
type GeminiParser struct {
	service *aiplatform.Service
	model   string
}

// NewGeminiParser returns a parser, or nil when no API key is configured.
func NewGeminiParser(ctx context.Context, apiKey string, model string, opts ...option.ClientOption) (*GeminiParser, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, publisherPrefix) {
		model = publisherPrefix + model
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := aiplatform.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiParser{service: service, model: model}, nil
}

func (g *GeminiParser) Parse(ctx context.Context, text string, pc Context) (transaction.Draft, error) {
	if g == nil || g.service == nil {
		return transaction.Draft{}, ErrNotConfigured
	}

	request := &aiplatform.GoogleCloudAiplatformV1GenerateContentRequest{
		Contents: []*aiplatform.GoogleCloudAiplatformV1Content{{
			Role:  "user",
			Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: buildPrompt(text, pc)}},
		}},
		GenerationConfig: &aiplatform.GoogleCloudAiplatformV1GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	response, err := g.service.Publishers.Models.GenerateContent(g.model, request).Context(ctx).Do()
	if err != nil {
		log.Errorf("Gemini parsing error: %v", err)
		return transaction.Draft{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return decodeDraft(responseText(response))
}

func responseText(response *aiplatform.GoogleCloudAiplatformV1GenerateContentResponse) string {
	if response == nil {
		return ""
	}
	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func responseSchema() *aiplatform.GoogleCloudAiplatformV1Schema {
	return &aiplatform.GoogleCloudAiplatformV1Schema{
		Type: "OBJECT",
		Properties: map[string]aiplatform.GoogleCloudAiplatformV1Schema{
			"description": {Type: "STRING"},
			"amount":      {Type: "NUMBER"},
			"category":    {Type: "STRING"},
			"type": {
				Type: "STRING",
				Enum: []string{
					string(transaction.Expense),
					string(transaction.Income),
					string(transaction.LedgerLoan),
					string(transaction.LedgerRepayment),
				},
			},
			"borrower": {Type: "STRING"},
		},
		Required: []string{"description", "amount", "category", "type"},
	}
}
