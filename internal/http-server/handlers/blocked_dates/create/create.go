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

type BlockedDateCreator interface {
	CreateBlockedDate(ctx context.Context, req *api.BlockedDateRequest) (*api.BlockedDateResponse, error)
}

type Request struct {
	api.BlockedDateRequest
}

type Response struct {
	response.Response
	BlockedDate *api.BlockedDateResponse `json:"blocked_date,omitempty"`
}

func New(log *slog.Logger, creator BlockedDateCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_dates.create.New"

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

		blocked, err := creator.CreateBlockedDate(r.Context(), &req.BlockedDateRequest)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid blocked date"))
			return
		}

		if err != nil {
			log.Error("Failed to create blocked date", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create blocked date"))
			return
		}

		log.Info("Blocked date created", slog.Any("blocked_date", blocked))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			BlockedDate: blocked,
		})
	}
}
