package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/auth"
)

// Machine-readable error codes.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInvalidID  = "INVALID_ID"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_SERVER_ERROR"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`              // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// DataResponse wraps a single resource.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse wraps a page of resources with its metadata.
type ListResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta"`
}

// PageMeta describes a limit/offset page.
type PageMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// --- Error Response Helpers ---

func respondError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code, Details: details})
}

// respondValidation sends a 400 with per-field details.
func respondValidation(c *gin.Context, details map[string]string) {
	respondError(c, http.StatusBadRequest, CodeValidation, "Validation failed", details)
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

// respondConflict sends a 409 with a human-readable reason.
func respondConflict(c *gin.Context, message string) {
	respondError(c, http.StatusConflict, CodeConflict, message, nil)
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s) [request %s]: %v", context, c.GetString(ContextKeyRequestID), err)
	respondError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
}

// --- Success Response Helpers ---

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data})
}

func respondList(c *gin.Context, data any, meta any) {
	c.JSON(http.StatusOK, ListResponse{Data: data, Meta: meta})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// --- Parameter Parsing ---

// parseIDParam extracts a positive integer ID from the :id URL parameter.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "Invalid "+resource+" id", nil)
		return 0, false
	}
	return uint(id), true
}

// --- Audit ---

// ChangeRecorder records successful mutations.
type ChangeRecorder interface {
	LogChange(meta audit.RequestMeta, change audit.Change)
}

func requestMeta(c *gin.Context) audit.RequestMeta {
	return audit.RequestMeta{
		RequestID: c.GetString(ContextKeyRequestID),
		IPAddress: c.ClientIP(),
		Actor:     auth.Actor(c),
	}
}

func recordChange(c *gin.Context, recorder ChangeRecorder, change audit.Change) {
	if recorder == nil {
		return
	}
	recorder.LogChange(requestMeta(c), change)
}
