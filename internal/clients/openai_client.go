package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/spacesedan/marketsentiment/internal/models"
)

const (
	openAIRequestTimeout = 60 * time.Second
	DEFAULT_OPENAI_MODEL = "gpt-4o-mini"
)

const openAIInstructions = `You are a financial news sentiment classifier.
Classify the overall market sentiment of the user's text as exactly one of
POSITIVE, NEGATIVE or NEUTRAL and report how confident you are as a number
between 0 and 1. Respond with JSON only.`

type OpenAIOptions struct {
	APIKey string
	Model  string
	// BaseURL overrides the API host, for proxies and compatible servers.
	BaseURL    string
	MaxRetries int
}

type llmClassification struct {
	Label      string  `json:"label" jsonschema:"enum=POSITIVE,enum=NEGATIVE,enum=NEUTRAL"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

var llmClassificationSchema = generateSchema[llmClassification]()

// OpenAIClassifier asks a chat model for a strict JSON classification.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(opts OpenAIOptions) (*OpenAIClassifier, error) {
	if opts.APIKey == "" {
		slog.Error("[OpenAIClient] Missing OpenAI API key")
		return nil, errors.New("[OpenAIClient] missing OpenAI API key")
	}
	if opts.Model == "" {
		opts.Model = DEFAULT_OPENAI_MODEL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(openAIRequestTimeout),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(reqOpts...)
	slog.Info("[OpenAIClient] OpenAI client initialized",
		slog.String("model", opts.Model),
		slog.Duration("timeout", openAIRequestTimeout))

	return &OpenAIClassifier{client: &client, model: opts.Model}, nil
}

func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "SentimentClassification",
			Schema:      llmClassificationSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Three-class sentiment classification"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(100),
		Instructions:    openai.String(openAIInstructions),
		Temperature:     openai.Float(0),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	start := time.Now()
	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		slog.Error("[OpenAIClient] Classification request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return models.ClassificationResult{}, fmt.Errorf("[OpenAIClient] classification request failed: %w", err)
	}

	var out llmClassification
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.OutputText())), &out); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("[OpenAIClient] unmarshal classification: %w", err)
	}

	label, err := models.ParseRawLabel(out.Label)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("[OpenAIClient] %w", err)
	}

	slog.Debug("[OpenAIClient] Classification request successful",
		slog.Duration("elapsed", time.Since(start)))

	return models.ClassificationResult{Label: label, Confidence: out.Confidence}, nil
}

// generateSchema reflects T into a schema accepted by strict structured outputs:
// no references, every property required, no additional properties.
func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}

	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		panic(err)
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		required := make([]string, 0, len(props))
		for name := range props {
			required = append(required, name)
		}
		sort.Strings(required)
		schema["required"] = required
	}
	schema["additionalProperties"] = false
	delete(schema, "$schema")
	delete(schema, "$id")

	return schema
}
