package handlers

import (
	"gastoscan/internal/dto"
	"gastoscan/pkg/auth"
	"gastoscan/pkg/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler issues access tokens against the single configured API
// credential.
type AuthHandler struct {
	jwtManager *auth.JWTManager
	cfg        *config.AuthConfig
	logger     *zap.Logger
}

func NewAuthHandler(jwtManager *auth.JWTManager, cfg *config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		cfg:        cfg,
		logger:     logger,
	}
}

func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username != h.cfg.APIUser || !auth.CheckPasswordHash(req.Password, h.cfg.APIPassHash) {
		h.logger.Warn("Rejected token request", zap.String("username", req.Username))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.jwtManager.GenerateToken(req.Username)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Token generation failed",
		})
	}

	return c.JSON(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtManager.GetTokenDuration().Seconds()),
	})
}
