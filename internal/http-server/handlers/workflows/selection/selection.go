package selection

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

type Request struct {
	api.WorkflowSelectionRequest
}

type Response struct {
	response.Response
	Workflow *api.WorkflowResponse `json:"workflow,omitempty"`
}

// New applies one selection to the workflow: a session type, a date (which
// resolves the slot set), or a slot start within the current set.
func New(log *slog.Logger, provider WorkflowProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workflows.selection.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		switch {
		case req.SessionTypeID != nil:
			err = wf.SelectSessionType(*req.SessionTypeID)
		case req.Date != nil:
			_, err = wf.SelectDate(r.Context(), *req.Date)
		case req.SlotStart != nil:
			err = wf.SelectSlot(*req.SlotStart)
		default:
			log.Error("empty selection")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "one of session_type_id, date, slot_start is required"))
			return
		}

		if errors.Is(err, response.ErrInvalidState) {
			log.Error("invalid workflow state", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_STATE), "selection not allowed in current state"))
			return
		}

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid selection", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid selection"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to apply selection", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to apply selection"))
			return
		}

		log.Info("Selection applied", slog.String("workflow_id", wf.ID()))

		render.JSON(w, r, Response{
			Workflow: wf.Snapshot(),
		})
	}
}
