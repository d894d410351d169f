package images

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/transform"
)

type Endpoints struct {
	orchestrator   *Orchestrator
	requestTimeout time.Duration
}

func NewEndpoints(orchestrator *Orchestrator, requestTimeout time.Duration) *Endpoints {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Endpoints{orchestrator: orchestrator, requestTimeout: requestTimeout}
}

// GetImage handles GET /images/{backend}/public/{imagePath...}. The backend
// name and image path are set as user values by the router.
func (e *Endpoints) GetImage(ctx *fasthttp.RequestCtx) {
	backendName, _ := ctx.UserValue("backend").(string)
	imagePath, _ := ctx.UserValue("imagePath").(string)
	if backendName == "" || imagePath == "" {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter,
			"backend name and image path are required"))
		return
	}

	rawParams := make(map[string]string)
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		rawParams[string(key)] = string(value)
	})

	// Wall-clock budget for the whole pipeline. In-flight backend calls are
	// abandoned, not interrupted.
	reqCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	data, outExt, err := e.orchestrator.GetImage(reqCtx, backendName, imagePath, rawParams)
	if err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	ctx.SetContentType(transform.ContentType(outExt))
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}
