package internal

import (
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/imagehub/imagehub_server/internal/batch"
	"github.com/imagehub/imagehub_server/internal/health"
	"github.com/imagehub/imagehub_server/internal/images"
	"github.com/imagehub/imagehub_server/internal/middleware"
	"github.com/imagehub/imagehub_server/internal/storage"
)

func NewRequestHandler(config *Config, imageEndpoints *images.Endpoints, batchEndpoints *batch.Endpoints, storageEndpoints *storage.Endpoints, healthEndpoints *health.HealthEndpoints) fasthttp.RequestHandler {
	corsMiddleware := middleware.NewCORSMiddleware(config.Server.AllowedOrigins)

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())

		switch {
		case path == "/health":
			healthEndpoints.Health(ctx)

		case strings.HasPrefix(path, "/images/"):
			// /images/{backend}/public/{imagePath...}
			rest := strings.TrimPrefix(path, "/images/")
			parts := strings.SplitN(rest, "/", 3)
			if len(parts) == 3 && parts[1] == "public" && parts[2] != "" {
				ctx.SetUserValue("backend", parts[0])
				ctx.SetUserValue("imagePath", parts[2])
				if string(ctx.Method()) == "GET" {
					imageEndpoints.GetImage(ctx)
				} else {
					ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
				}
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		case path == "/batch/process/directory":
			if string(ctx.Method()) == "POST" {
				batchEndpoints.ProcessDirectory(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/batch/process/list":
			if string(ctx.Method()) == "POST" {
				batchEndpoints.ProcessList(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case strings.HasPrefix(path, "/batch/progress/"):
			parts := strings.Split(path, "/")
			if len(parts) == 4 && parts[3] != "" {
				ctx.SetUserValue("token", parts[3])
				if string(ctx.Method()) == "GET" {
					batchEndpoints.GetProgress(ctx)
				} else {
					ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
				}
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		case strings.HasPrefix(path, "/config/storage/validate/"):
			parts := strings.Split(path, "/")
			if len(parts) == 5 && parts[4] != "" {
				ctx.SetUserValue("storageName", parts[4])
				if string(ctx.Method()) == "GET" {
					storageEndpoints.ValidateCredentials(ctx)
				} else {
					ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
				}
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return corsMiddleware.Handle(handler)
}
