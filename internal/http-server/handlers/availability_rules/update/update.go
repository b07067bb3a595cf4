package update

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

type RuleUpdater interface {
	UpdateAvailabilityRule(ctx context.Context, id string, req *api.AvailabilityRuleRequest) (*api.AvailabilityRuleResponse, error)
}

type Request struct {
	api.AvailabilityRuleRequest
}

type Response struct {
	response.Response
	Rule *api.AvailabilityRuleResponse `json:"availability_rule,omitempty"`
}

func New(log *slog.Logger, updater RuleUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability_rules.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		rule, err := updater.UpdateAvailabilityRule(r.Context(), id, &req.AvailabilityRuleRequest)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid availability rule"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to update availability rule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update availability rule"))
			return
		}

		log.Info("Availability rule updated", slog.Any("rule", rule))

		render.JSON(w, r, Response{
			Rule: rule,
		})
	}
}
