package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coachbooking/api"
	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SessionTypeCreator interface {
	CreateSessionType(ctx context.Context, req *api.SessionTypeRequest) (*api.SessionTypeResponse, error)
}

type Request struct {
	api.SessionTypeRequest
}

type Response struct {
	response.Response
	SessionType *api.SessionTypeResponse `json:"session_type,omitempty"`
}

func New(log *slog.Logger, creator SessionTypeCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session_types.create.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if req.ExpertID == "" {
			log.Error("expert_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "expert_id is required"))
			return
		}

		sessionType, err := creator.CreateSessionType(r.Context(), &req.SessionTypeRequest)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid session type"))
			return
		}

		if err != nil {
			log.Error("Failed to create session type", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create session type"))
			return
		}

		log.Info("Session type created", slog.Any("session_type", sessionType))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			SessionType: sessionType,
		})
	}
}
