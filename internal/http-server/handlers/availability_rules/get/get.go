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

type RuleGetter interface {
	GetAvailabilityRule(ctx context.Context, id string) (*api.AvailabilityRuleResponse, error)
	ListAvailabilityRules(ctx context.Context, expertID string) ([]*api.AvailabilityRuleResponse, error)
}

type Response struct {
	response.Response
	Rules []api.AvailabilityRuleResponse `json:"availability_rules,omitempty"`
	Rule  *api.AvailabilityRuleResponse  `json:"availability_rule,omitempty"`
}

func New(log *slog.Logger, getter RuleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability_rules.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			rule, err := getter.GetAvailabilityRule(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get availability rule", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability rule"))
				return
			}

			log.Info("Availability rule retrieved", slog.Any("rule", rule))
			render.JSON(w, r, Response{
				Rule: rule,
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

		rules, err := getter.ListAvailabilityRules(r.Context(), expertID)

		if err != nil {
			log.Error("Failed to list availability rules", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list availability rules"))
			return
		}

		log.Info("Availability rules retrieved", slog.Int("count", len(rules)))

		rulesResponse := make([]api.AvailabilityRuleResponse, len(rules))
		for i, rule := range rules {
			rulesResponse[i] = *rule
		}

		render.JSON(w, r, Response{
			Rules: rulesResponse,
		})
	}
}
