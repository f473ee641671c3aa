package mcp

import (
	"errors"

	"github.com/terraria-rag/wikiclean/internal/tools"
	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// Error codes returned to MCP clients.
const (
	CodeInvalidArguments = "invalid_arguments"
	CodeUnresolvedMarkup = "unresolved_markup"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
)

// ErrorResponse represents a structured error response for MCP
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// FormatError converts various error types to structured ErrorResponse
func FormatError(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	var (
		argErr        *tools.ArgumentError
		unresolvedErr *wikitext.UnresolvedError
	)
	switch {
	case errors.As(err, &argErr):
		return formatArgumentError(argErr)
	case errors.As(err, &unresolvedErr):
		return formatUnresolvedError(err, unresolvedErr)
	case errors.Is(err, tools.ErrRateLimited):
		return &ErrorResponse{
			Error:   CodeRateLimited,
			Message: err.Error(),
			Hint:    "Too many calls. Wait a moment and try again.",
		}
	default:
		return &ErrorResponse{
			Error:   CodeInternal,
			Message: err.Error(),
		}
	}
}

func formatArgumentError(err *tools.ArgumentError) *ErrorResponse {
	return &ErrorResponse{
		Error:   CodeInvalidArguments,
		Message: err.Error(),
		Details: map[string]any{
			"field": err.Field,
		},
	}
}

func formatUnresolvedError(err error, ue *wikitext.UnresolvedError) *ErrorResponse {
	return &ErrorResponse{
		Error:   CodeUnresolvedMarkup,
		Message: err.Error(),
		Hint:    "The markup is malformed or nested too deeply. clean_wikitext cleans such pages as far as possible and reports a warning instead.",
		Details: map[string]any{
			"construct": ue.Construct,
			"passes":    ue.Passes,
		},
	}
}

// FormatErrorString creates an error response from a simple string
func FormatErrorString(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   code,
		Message: message,
	}
}
