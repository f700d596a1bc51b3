package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/generate"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
)

// Error types are part of the wire contract: clients distinguish bad
// requests from model-side failures by the type string, not the message.
const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeNotFound       = "not_found_error"
	errTypeDegenerate     = "degenerate_distribution"
	errTypeModel          = "model_error"
	errTypeServer         = "server_error"
)

func writeErr(c *echo.Context, status int, errType, msg string) error {
	return writeJSON(c, status, map[string]APIError{
		"error": {Message: msg, Type: errType},
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeErr(c, http.StatusBadRequest, errTypeInvalidRequest, msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeErr(c, http.StatusNotFound, errTypeNotFound, msg)
}

// mapGenerateError translates the sampler/session error taxonomy to a
// stable HTTP status and error type.
func mapGenerateError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, sampling.ErrInvalidParams), errors.Is(err, generate.ErrEmptyContext):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, sampling.ErrDegenerate):
		return writeErr(c, http.StatusUnprocessableEntity, errTypeDegenerate, err.Error())
	case errors.Is(err, generate.ErrScorer), errors.Is(err, generate.ErrCodec):
		return writeErr(c, http.StatusInternalServerError, errTypeModel, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return writeErr(c, http.StatusServiceUnavailable, errTypeServer, err.Error())
	default:
		return writeErr(c, http.StatusInternalServerError, errTypeServer, err.Error())
	}
}
