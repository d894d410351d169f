package batch

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

type Endpoints struct {
	runner *Runner
	store  Store
}

func NewEndpoints(runner *Runner, store Store) *Endpoints {
	return &Endpoints{runner: runner, store: store}
}

type directoryRequest struct {
	StorageName     string            `json:"storageName"`
	Path            string            `json:"path"`
	Transformations map[string]string `json:"transformations"`
}

type listRequest struct {
	StorageName     string            `json:"storageName"`
	FilePaths       []string          `json:"filePaths"`
	Transformations map[string]string `json:"transformations"`
}

type startResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type progressResponse struct {
	Success  bool     `json:"success"`
	Progress Progress `json:"progress"`
}

// ProcessDirectory handles POST /batch/process/directory.
func (e *Endpoints) ProcessDirectory(ctx *fasthttp.RequestCtx) {
	var req directoryRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter, "invalid request body"))
		return
	}
	if req.StorageName == "" || req.Path == "" {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter,
			"storageName and path are required"))
		return
	}

	token := uuid.NewString()
	if err := e.runner.RunDirectory(ctx, token, req.StorageName, req.Path, req.Transformations); err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	e.writeStarted(ctx, token)
}

// ProcessList handles POST /batch/process/list.
func (e *Endpoints) ProcessList(ctx *fasthttp.RequestCtx) {
	var req listRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter, "invalid request body"))
		return
	}
	if req.StorageName == "" {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter, "storageName is required"))
		return
	}

	token := uuid.NewString()
	if err := e.runner.RunList(ctx, token, req.StorageName, req.FilePaths, req.Transformations); err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	e.writeStarted(ctx, token)
}

// GetProgress handles GET /batch/progress/{token}.
func (e *Endpoints) GetProgress(ctx *fasthttp.RequestCtx) {
	token, _ := ctx.UserValue("token").(string)
	if token == "" {
		apperr.WriteError(ctx, apperr.New(apperr.KindInvalidParameter, "token is required"))
		return
	}

	progress, err := e.store.Get(ctx, token)
	if err != nil {
		apperr.WriteError(ctx, err)
		return
	}

	body, err := json.Marshal(progressResponse{Success: true, Progress: progress})
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}

func (e *Endpoints) writeStarted(ctx *fasthttp.RequestCtx, token string) {
	body, err := json.Marshal(startResponse{
		Success: true,
		Message: "batch processing started",
		Token:   token,
	})
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusAccepted)
	ctx.SetBody(body)
}
