package service

import (
	"context"
	"fmt"
	"strings"

	"gastoscan/internal/models"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// OCRService is the fallback extractor. It runs only when the vision
// model's output is missing or unusable in a critical field, recognizes
// text locally (tesseract for images, go-fitz for PDFs) and lifts a raw
// field bag out of it with the heuristics in ocr_parser.go. Like the
// primary extractor, every failure normalizes to nil.
type OCRService struct {
	languages []string
	logger    *zap.Logger
}

func NewOCRService(languages []string, logger *zap.Logger) *OCRService {
	return &OCRService{
		languages: languages,
		logger:    logger,
	}
}

func (s *OCRService) Extract(ctx context.Context, image []byte, mimeType string) *models.RawExtraction {
	if len(image) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("OCR skipped, context done", zap.Error(err))
		return nil
	}

	var (
		text string
		err  error
	)
	if mimeType == "application/pdf" {
		text, err = s.extractTextFromPDF(image)
	} else {
		text, err = s.recognizeImage(image)
	}
	if err != nil {
		s.logger.Warn("OCR extraction failed", zap.String("mime_type", mimeType), zap.Error(err))
		return nil
	}

	lines := cleanLines(strings.Split(text, "\n"))
	if len(lines) == 0 {
		s.logger.Warn("OCR produced no text")
		return nil
	}

	raw := parseOCRLines(lines)
	s.logger.Info("OCR fallback extraction completed",
		zap.Int("lines", len(lines)),
		zap.String("tipo", raw.TipoDocumento),
		zap.String("monto", raw.MontoTotal.String()),
	)
	return raw
}

func (s *OCRService) recognizeImage(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(s.languages...); err != nil {
		return "", fmt.Errorf("setting tesseract languages: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	return text, nil
}

func (s *OCRService) extractTextFromPDF(pdf []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("no text found in PDF")
	}
	return text, nil
}
