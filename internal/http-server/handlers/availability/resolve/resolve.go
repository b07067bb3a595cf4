package resolve

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

type SlotResolver interface {
	ResolveAvailableSlots(ctx context.Context, expertID, date, sessionTypeID string) ([]*api.SlotResponse, error)
}

type Response struct {
	response.Response
	Slots []api.SlotResponse `json:"slots"`
}

func New(log *slog.Logger, resolver SlotResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.resolve.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		expertID := chi.URLParam(r, "id")
		date := r.URL.Query().Get("date")
		sessionTypeID := r.URL.Query().Get("session_type_id")

		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date is required"))
			return
		}

		if sessionTypeID == "" {
			log.Error("session_type_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "session_type_id is required"))
			return
		}

		slots, err := resolver.ResolveAvailableSlots(r.Context(), expertID, date, sessionTypeID)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "invalid date or session type"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to resolve slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve slots"))
			return
		}

		log.Info("Slots resolved", slog.Int("count", len(slots)))

		slotsResponse := make([]api.SlotResponse, len(slots))
		for i, slot := range slots {
			slotsResponse[i] = *slot
		}

		render.JSON(w, r, Response{
			Slots: slotsResponse,
		})
	}
}
