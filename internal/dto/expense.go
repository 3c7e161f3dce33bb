package dto

import "gastoscan/internal/models"

// ExtractResponse is the API projection of one pipeline run.
type ExtractResponse struct {
	Key       string                         `json:"key"`
	Cached    bool                           `json:"cached"`
	Record    *models.CanonicalExpenseRecord `json:"record"`
	XML       string                         `json:"xml"`
	CreatedAt string                         `json:"created_at"`
}
