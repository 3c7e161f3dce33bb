package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"gastoscan/internal/models"
	"gastoscan/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// extractionSchema is the strict JSON schema the model must satisfy. It
// mirrors the RawExtraction shape field for field.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "tipo_documento": {"type": "string", "enum": ["factura", "boleta", "FACTURA", "BOLETA"]},
    "proveedor": {"type": "string"},
    "ruc_proveedor": {"anyOf": [{"type": "string"}, {"type": "null"}]},
    "fecha_emision": {"type": "string"},
    "monto_total": {"anyOf": [{"type": "number"}, {"type": "string"}]},
    "moneda": {"type": "string"},
    "categoria_gasto": {"anyOf": [{"type": "string"}, {"type": "null"}]},
    "numero_documento": {"anyOf": [{"type": "string"}, {"type": "null"}]},
    "items": {
      "anyOf": [
        {"type": "array", "items": {"type": "object", "properties": {"descripcion": {"type": "string"}, "cantidad": {"anyOf": [{"type": "number"}, {"type": "string"}]}, "precio_unitario": {"anyOf": [{"type": "number"}, {"type": "string"}]}, "subtotal": {"anyOf": [{"type": "number"}, {"type": "string"}]}}, "required": ["descripcion", "cantidad", "precio_unitario", "subtotal"], "additionalProperties": false}},
        {"type": "null"}
      ]
    },
    "observaciones": {"anyOf": [{"type": "string"}, {"type": "null"}]}
  },
  "required": ["tipo_documento", "proveedor", "ruc_proveedor", "fecha_emision", "monto_total", "moneda", "categoria_gasto", "numero_documento", "items", "observaciones"],
  "additionalProperties": false
}`

// OpenAIExtractor runs the extraction prompt through an OpenAI vision model
// with the image inlined as a data URL.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIExtractor(cfg *config.OpenAIConfig, logger *zap.Logger) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	return &OpenAIExtractor{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (e *OpenAIExtractor) ExtractExpense(ctx context.Context, image []byte, mimeType string) (*models.RawExtraction, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "expense_extraction_es",
				Strict: true,
				Schema: json.RawMessage(extractionSchema),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	raw, err := parseExtractionJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("OpenAI extraction parsed", zap.String("model", e.model))
	return raw, nil
}

func (e *OpenAIExtractor) Close() error {
	return nil
}
