package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coachbooking/api"
	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionTypeGetter interface {
	GetSessionType(ctx context.Context, id string) (*api.SessionTypeResponse, error)
	ListSessionTypes(ctx context.Context, expertID string) ([]*api.SessionTypeResponse, error)
}

type Response struct {
	response.Response
	SessionTypes []api.SessionTypeResponse `json:"session_types,omitempty"`
	SessionType  *api.SessionTypeResponse  `json:"session_type,omitempty"`
}

func New(log *slog.Logger, getter SessionTypeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session_types.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			sessionType, err := getter.GetSessionType(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get session type", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get session type"))
				return
			}

			log.Info("Session type retrieved", slog.Any("session_type", sessionType))
			render.JSON(w, r, Response{
				SessionType: sessionType,
			})
			return
		}

		expertID := r.URL.Query().Get("expert_id")
		if expertID == "" {
			log.Error("expert_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "expert_id is required"))
			return
		}

		types, err := getter.ListSessionTypes(r.Context(), expertID)

		if err != nil {
			log.Error("Failed to list session types", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list session types"))
			return
		}

		log.Info("Session types retrieved", slog.Int("count", len(types)))

		typesResponse := make([]api.SessionTypeResponse, len(types))
		for i, st := range types {
			typesResponse[i] = *st
		}

		render.JSON(w, r, Response{
			SessionTypes: typesResponse,
		})
	}
}
