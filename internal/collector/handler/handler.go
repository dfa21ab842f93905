// Package handler exposes the collector's reading service over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/leaf/internal/collector/core"
	"github.com/autopeer-io/leaf/internal/collector/service"
	httpmw "github.com/autopeer-io/leaf/internal/pkg/middleware/http"
	httpserver "github.com/autopeer-io/leaf/internal/pkg/server/http"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

// MaxBodyBytes bounds a submission body.
const MaxBodyBytes = 4 << 10

type readingHandler struct {
	svc    *service.ReadingService
	logger log.Logger
}

// NewRouter returns the collector router: probes, metrics and the reading API.
func NewRouter(svc *service.ReadingService, ready httpserver.ReadinessFunc, requestTimeout time.Duration, logger log.Logger) *mux.Router {
	h := &readingHandler{svc: svc, logger: logger}

	r := httpserver.NewRouter(ready)
	r.Use(httpmw.Logging(logger), httpmw.Timeout(requestTimeout))
	r.HandleFunc("/submit-reading", h.submit).Methods(http.MethodPost)
	r.HandleFunc("/readings/{plant_name}", h.list).Methods(http.MethodGet)
	return r
}

// submitRequest uses pointers so absent fields can be told apart from zero values.
type submitRequest struct {
	PlantName *string  `json:"plant_name"`
	Value     *float64 `json:"value"`
}

func (h *readingHandler) submit(w http.ResponseWriter, r *http.Request) {
	reading, err := decodeReading(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := h.svc.Submit(r.Context(), reading)
	switch {
	case errors.Is(err, core.ErrInvalidReading):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		h.logger.Error(err, "Failed to store reading", "plant", reading.PlantName)
		writeError(w, http.StatusInternalServerError, errors.New("storage failure"))
		return
	}

	writeJSON(w, http.StatusCreated, v1.SubmitResponse{Status: "ok", ID: stored.ID})
}

func decodeReading(w http.ResponseWriter, r *http.Request) (v1.Reading, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	var req submitRequest
	if err := dec.Decode(&req); err != nil {
		return v1.Reading{}, fmt.Errorf("malformed body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return v1.Reading{}, errors.New("malformed body: trailing data")
	}
	if req.PlantName == nil || req.Value == nil {
		return v1.Reading{}, errors.New("plant_name and value are required")
	}
	return v1.Reading{PlantName: *req.PlantName, Value: *req.Value}, nil
}

func (h *readingHandler) list(w http.ResponseWriter, r *http.Request) {
	plant := mux.Vars(r)["plant_name"]

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer, got %q", s))
			return
		}
		limit = n
	}

	readings, err := h.svc.List(r.Context(), plant, limit)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		h.logger.Error(err, "Failed to list readings", "plant", plant)
		writeError(w, http.StatusInternalServerError, errors.New("storage failure"))
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, v1.SubmitResponse{Status: "error", Error: err.Error()})
}
