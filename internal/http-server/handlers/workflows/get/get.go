package get

import (
	"errors"
	"log/slog"
	"net/http"

	"coachbooking/api"
	"coachbooking/internal/workflow"
	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type WorkflowProvider interface {
	Get(id string) (*workflow.Workflow, error)
}

type Response struct {
	response.Response
	Workflow *api.WorkflowResponse `json:"workflow,omitempty"`
}

func New(log *slog.Logger, provider WorkflowProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workflows.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		wf, err := provider.Get(id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("workflow not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "workflow not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get workflow", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get workflow"))
			return
		}

		render.JSON(w, r, Response{
			Workflow: wf.Snapshot(),
		})
	}
}
