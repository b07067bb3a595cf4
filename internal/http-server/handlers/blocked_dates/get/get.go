package get

import (
	"context"
	"log/slog"
	"net/http"

	"coachbooking/api"
	"coachbooking/pkg/response"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BlockedDateLister interface {
	ListBlockedDates(ctx context.Context, expertID string) ([]*api.BlockedDateResponse, error)
}

type Response struct {
	response.Response
	BlockedDates []api.BlockedDateResponse `json:"blocked_dates"`
}

func New(log *slog.Logger, lister BlockedDateLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_dates.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		expertID := r.URL.Query().Get("expert_id")
		if expertID == "" {
			log.Error("expert_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "expert_id is required"))
			return
		}

		blocked, err := lister.ListBlockedDates(r.Context(), expertID)

		if err != nil {
			log.Error("Failed to list blocked dates", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blocked dates"))
			return
		}

		log.Info("Blocked dates retrieved", slog.Int("count", len(blocked)))

		blockedResponse := make([]api.BlockedDateResponse, len(blocked))
		for i, b := range blocked {
			blockedResponse[i] = *b
		}

		render.JSON(w, r, Response{
			BlockedDates: blockedResponse,
		})
	}
}
