package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope. Errors become {"v","success":false,"error","code","message","details"}.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Fail(body.Code, body.Message, body.Details), nil
	case huma.StatusError:
		return response.Fail(string(response.StatusCode(body.GetStatus())), body.Error(), nil), nil
	}
	return response.OK(v), nil
}
