package handlers

import (
	"io"
	"time"

	"gastoscan/internal/dto"
	"gastoscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the multipart document size (10 MiB).
const maxUploadBytes = 10 << 20

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// Extract accepts a multipart document upload and runs the extraction
// pipeline over it.
func (h *ExpenseHandler) Extract(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document file is required",
		})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "document exceeds maximum size",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable document",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable document",
		})
	}

	meta := service.DocumentMeta{
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Filename:  fileHeader.Filename,
		SizeBytes: fileHeader.Size,
	}

	entry, cached := h.expenseService.Process(c.Context(), content, meta)

	return c.JSON(dto.ExtractResponse{
		Key:       entry.Key,
		Cached:    cached,
		Record:    entry.Record,
		XML:       entry.XML,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	})
}

// Get returns a previously computed record by its cache key.
func (h *ExpenseHandler) Get(c *fiber.Ctx) error {
	key := c.Params("key")

	entry := h.expenseService.Lookup(key)
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no record for this key",
		})
	}

	return c.JSON(dto.ExtractResponse{
		Key:       entry.Key,
		Cached:    true,
		Record:    entry.Record,
		XML:       entry.XML,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	})
}
