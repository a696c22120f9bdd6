package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/sharego/internal/fare"
	"github.com/example/sharego/internal/geo"
	"github.com/example/sharego/internal/rides"
	"github.com/example/sharego/internal/storage"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses with
// stable machine-readable codes. Unknown errors become 500s without
// leaking internals.
func writeError(w http.ResponseWriter, err error) {
	code := "internal"
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, fare.ErrInvalidDistance):
		code, status = "invalid_distance", http.StatusBadRequest
	case errors.Is(err, fare.ErrInvalidVehicleType):
		code, status = "invalid_vehicle_type", http.StatusBadRequest
	case errors.Is(err, fare.ErrPricingUnavailable):
		code, status = "pricing_unavailable", http.StatusServiceUnavailable
	case errors.Is(err, geo.ErrRoutingUnavailable):
		code, status = "routing_unavailable", http.StatusServiceUnavailable
	case errors.Is(err, geo.ErrNotFound):
		code, status = "geocode_not_found", http.StatusUnprocessableEntity
	case errors.Is(err, rides.ErrMissingSearchCriteria):
		code, status = "missing_search_criteria", http.StatusBadRequest
	case errors.Is(err, rides.ErrIncompleteCounterparty):
		code, status = "incomplete_counterparty_profile", http.StatusUnprocessableEntity
	case errors.Is(err, rides.ErrInvalidRole), errors.Is(err, rides.ErrInvalidSchedule), errors.Is(err, rides.ErrMissingPlace):
		code, status = "invalid_request", http.StatusBadRequest
	case errors.Is(err, storage.ErrAlreadyBooked):
		code, status = "already_booked", http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		code, status = "not_found", http.StatusNotFound
	default:
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
