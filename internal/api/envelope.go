package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartbookmarks/smartbookmarks/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the response envelope.
// Errors surface their message under "error" and their code under "code".
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.Fail(apiErr.Code, apiErr.Message, apiErr.Details), nil
	}

	if code, err := strconv.Atoi(status); err == nil && code >= 400 {
		if se, ok := v.(huma.StatusError); ok {
			return response.Fail(response.StatusCode(code), se.Error(), nil), nil
		}
		return response.Fail(response.StatusCode(code), "request failed", v), nil
	}

	return response.OK(v), nil
}
