package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type RuleDeleter interface {
	DeleteAvailabilityRule(ctx context.Context, id string) error
}

func New(log *slog.Logger, deleter RuleDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability_rules.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		err := deleter.DeleteAvailabilityRule(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to delete availability rule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete availability rule"))
			return
		}

		log.Info("Availability rule deleted", slog.String("id", id))

		w.WriteHeader(http.StatusNoContent)
	}
}
