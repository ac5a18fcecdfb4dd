package movie

import (
	"encoding/json"
	"net/http"

	"watchlist/models"
)

type MovieHandlers struct {
	Service *MovieService
}

func NewMovieHandlers(service *MovieService) *MovieHandlers {
	return &MovieHandlers{Service: service}
}

func (h *MovieHandlers) GetAllMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Service.FindAll(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to list movies"})
		return
	}

	// Always an array, never null
	if movies == nil {
		movies = []*models.Movie{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}
