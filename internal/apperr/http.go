package apperr

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HTTPStatus maps an error's kind onto the status code taxonomy.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidParameter:
		return fasthttp.StatusBadRequest
	case KindNotFound:
		return fasthttp.StatusNotFound
	case KindUnsupported:
		return fasthttp.StatusInternalServerError
	case KindBackend:
		return fasthttp.StatusBadGateway
	case KindTransform:
		return fasthttp.StatusBadGateway
	case KindAuth:
		return fasthttp.StatusUnauthorized
	default:
		return fasthttp.StatusInternalServerError
	}
}

// WriteError renders the structured {success:false, error:...} body with the
// status drawn from the taxonomy. Unclassified errors get a generic message.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	if KindOf(err) == KindUnknown {
		log.Error().Err(err).Str("path", string(ctx.Path())).Msg("unexpected error")
		msg = "internal server error"
	}

	body, jsonErr := json.Marshal(errorResponse{Success: false, Error: msg})
	if jsonErr != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
