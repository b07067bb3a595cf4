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

type RuleCreator interface {
	CreateAvailabilityRule(ctx context.Context, req *api.AvailabilityRuleRequest) (*api.AvailabilityRuleResponse, error)
}

type Request struct {
	api.AvailabilityRuleRequest
}

type Response struct {
	response.Response
	Rule *api.AvailabilityRuleResponse `json:"availability_rule,omitempty"`
}

func New(log *slog.Logger, creator RuleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability_rules.create.New"

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

		rule, err := creator.CreateAvailabilityRule(r.Context(), &req.AvailabilityRuleRequest)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid availability rule"))
			return
		}

		if err != nil {
			log.Error("Failed to create availability rule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create availability rule"))
			return
		}

		log.Info("Availability rule created", slog.Any("rule", rule))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Rule: rule,
		})
	}
}
