package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gastoscan/internal/models"

	"go.uber.org/zap"
)

// extractionPrompt instructs the vision model to return the raw extraction
// schema. Spanish on purpose: the documents are Peruvian facturas and
// boletas and the model reads them better when addressed in their language.
const extractionPrompt = `Eres una IA experta en análisis de documentos financieros, especializada en facturas y boletas de venta.
Recibirás una imagen de una factura o boleta, y tu tarea es identificar y estructurar la información clave de manera precisa y estandarizada.

Debes analizar cuidadosamente el documento y devolver únicamente un JSON válido, con los siguientes campos:
{
  "tipo_documento": "factura o boleta",
  "proveedor": "nombre del comercio o empresa emisora",
  "ruc_proveedor": "RUC o número de identificación del proveedor (si existe)",
  "fecha_emision": "YYYY-MM-DD",
  "monto_total": "monto total del documento",
  "moneda": "PEN, USD, etc.",
  "categoria_gasto": "categoría del gasto detectada o nueva",
  "numero_documento": "número o serie del documento",
  "items": [
    {
      "descripcion": "nombre del producto o servicio",
      "cantidad": "cantidad comprada",
      "precio_unitario": "precio por unidad",
      "subtotal": "subtotal del ítem"
    }
  ],
  "observaciones": "comentarios o detalles adicionales relevantes"
}

Reglas de extracción:
- Si un dato no aparece en el documento, deja su valor vacío ("").
- Detecta automáticamente si el documento es factura o boleta.
- Usa formato ISO 8601 para las fechas (YYYY-MM-DD).
- Redondea los montos a dos decimales.
- Si hay varios ítems, incluye todos en la lista "items".
- No incluyas texto, explicaciones o comentarios fuera del JSON.
- Los montos deben usar punto como separador decimal. Si el documento usa coma decimal (1.234,56), conviértelo a 1234.56.
- Identifica la moneda: 'PEN' (símbolo 'S/') o 'USD' (símbolo '$'). Si no está explícito, asume 'PEN'.

Categorías base:
- alimentación, transporte, servicios, entretenimiento, educación, salud, vivienda, tecnología, otros.
- Si el gasto pertenece a una categoría nueva, identifícala con un nombre claro y coherente (por ejemplo: "ropa", "mascotas", "viajes") y asigna ese valor en "categoria_gasto".

Instrucción final:
Devuelve solo el JSON final sin texto adicional, encabezados ni explicaciones.`

// VisionProvider is a vision-capable generative model that can run the
// extraction prompt over an image.
type VisionProvider interface {
	ExtractExpense(ctx context.Context, image []byte, mimeType string) (*models.RawExtraction, error)
	Close() error
}

// LLMService is the primary extractor. Any provider failure (network,
// malformed response, refusal) normalizes to nil here and never crosses
// this boundary.
type LLMService struct {
	provider VisionProvider
	logger   *zap.Logger
}

func NewLLMService(provider VisionProvider, logger *zap.Logger) *LLMService {
	return &LLMService{
		provider: provider,
		logger:   logger,
	}
}

// Extract runs the vision extraction, returning nil when the provider fails.
func (s *LLMService) Extract(ctx context.Context, image []byte, mimeType string) *models.RawExtraction {
	if len(image) == 0 {
		return nil
	}

	raw, err := s.provider.ExtractExpense(ctx, image, mimeType)
	if err != nil {
		s.logger.Warn("Vision extraction failed", zap.Error(err))
		return nil
	}

	s.logger.Info("Vision extraction completed",
		zap.String("tipo", raw.TipoDocumento),
		zap.String("proveedor", raw.Proveedor),
		zap.String("monto", raw.MontoTotal.String()),
	)
	return raw
}

func (s *LLMService) Close() error {
	return s.provider.Close()
}

// parseExtractionJSON pulls the extraction object out of a model response
// that may be wrapped in markdown fences or surrounded by commentary.
func parseExtractionJSON(content string) (*models.RawExtraction, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model response: %s", content)
	}

	var raw models.RawExtraction
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing extraction JSON: %w", err)
	}

	raw.Proveedor = sanitizeUTF8(raw.Proveedor)
	raw.Observaciones = sanitizeUTF8(raw.Observaciones)
	for i := range raw.Items {
		raw.Items[i].Descripcion = sanitizeUTF8(raw.Items[i].Descripcion)
	}

	return &raw, nil
}
