package health

import (
	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

type HealthEndpoints struct {
	version  string
	engine   string
	storages []string
}

func NewEndpoints(version, engine string, storages []string) *HealthEndpoints {
	return &HealthEndpoints{
		version:  version,
		engine:   engine,
		storages: storages,
	}
}

type HealthResponse struct {
	Status   string   `json:"status"`
	Version  string   `json:"version"`
	Engine   string   `json:"engine"`
	Storages []string `json:"storages"`
}

func (h *HealthEndpoints) Health(ctx *fasthttp.RequestCtx) {
	response := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Engine:   h.engine,
		Storages: h.storages,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(responseJSON)
}
