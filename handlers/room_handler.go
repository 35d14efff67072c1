package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ppissanetzky/forty-two/services"
)

// RoomHandler receives match outcomes from the gameplay engine.
type RoomHandler struct {
	tournamentService services.TournamentService
}

func NewRoomHandler(tournamentService services.TournamentService) *RoomHandler {
	return &RoomHandler{tournamentService: tournamentService}
}

// Result records the terminal outcome of a live match room and lets
// the bracket advance.
func (h *RoomHandler) Result(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		notFoundResponse(w, r)
		return
	}

	var report services.MatchReport
	if err := readJSON(w, r, &report); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.ReportMatchResult(roomID, report); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"recorded": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
