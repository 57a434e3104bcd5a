package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/artifact"
)

const (
	codeEmptyInput    = "EMPTY_INPUT"
	codeInvalidConfig = "INVALID_CONFIGURATION"
	codeArtifactLoad  = "ARTIFACT_LOAD_ERROR"
	codeInvalidBody   = "INVALID_REQUEST"
	codeNotFound      = "NOT_FOUND"
	codeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse is the HTTP form of a classification error.
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapError maps engine errors to HTTP responses: empty input is 422,
// invalid configuration 400 and artifact failures 503.
func MapError(err error) ErrorResponse {
	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		return ErrorResponse{
			StatusCode: http.StatusUnprocessableEntity,
			Code:       codeEmptyInput,
			Message:    "complaint has no usable content after normalization; please provide more detail",
		}
	case errors.Is(err, engine.ErrInvalidConfiguration):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       codeInvalidConfig,
			Message:    err.Error(),
		}
	case errors.Is(err, artifact.ErrArtifactLoad):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       codeArtifactLoad,
			Message:    "model artifacts for this dataset and variant are unavailable",
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       codeInternal,
			Message:    "internal server error",
		}
	}
}

// handleError sends the mapped response and attaches err to the context for
// the request logger.
func handleError(c *gin.Context, err error) ErrorResponse {
	resp := MapError(err)
	c.Error(err)
	respondError(c, resp.StatusCode, resp.Code, resp.Message)
	return resp
}
