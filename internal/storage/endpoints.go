package storage

import (
	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

type Endpoints struct {
	registry *Registry
}

func NewEndpoints(registry *Registry) *Endpoints {
	return &Endpoints{registry: registry}
}

type validateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidateCredentials handles GET /config/storage/validate/{storageName}.
func (e *Endpoints) ValidateCredentials(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("storageName").(string)
	if name == "" {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter, "storage name is required"))
		return
	}

	backend, err := e.registry.Get(name)
	if err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	if err := backend.CheckCredentials(ctx); err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	body, err := json.Marshal(validateResponse{Success: true, Message: "credentials valid"})
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}
