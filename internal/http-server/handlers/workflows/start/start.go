package start

import (
	"log/slog"
	"net/http"

	"coachbooking/api"
	"coachbooking/internal/workflow"
	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WorkflowStarter interface {
	Start(expertID string) (*workflow.Workflow, error)
}

type Request struct {
	api.WorkflowStartRequest
}

type Response struct {
	response.Response
	Workflow *api.WorkflowResponse `json:"workflow,omitempty"`
}

func New(log *slog.Logger, starter WorkflowStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workflows.start.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.ExpertID == "" {
			log.Error("expert_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "expert_id is required"))
			return
		}

		wf, err := starter.Start(req.ExpertID)
		if err != nil {
			log.Error("Failed to start workflow", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to start workflow"))
			return
		}

		log.Info("Workflow started", slog.String("workflow_id", wf.ID()))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Workflow: wf.Snapshot(),
		})
	}
}
