// Package server exposes the aggregation and modeling pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/hairstat/internal/dataset"
	"github.com/verte-zerg/hairstat/internal/eda"
	"github.com/verte-zerg/hairstat/internal/journal"
	"github.com/verte-zerg/hairstat/internal/model"
	"github.com/verte-zerg/hairstat/internal/pipeline"
	"github.com/verte-zerg/hairstat/internal/stats"
)

const (
	defaultHeadRows = 5
	maxHeadRows     = 100
	maxBodyBytes    = 1 << 16
	shutdownTimeout = 5 * time.Second
)

// Config carries the datasets and services the API serves.
type Config struct {
	Prediction     *dataset.Dataset
	EDA            *dataset.Dataset
	Options        pipeline.Options
	Journal        *journal.Journal
	Logger         *slog.Logger
	AllowedOrigins []string
}

// Server handles API requests. Datasets are read-only and shared between requests.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	validate *validator.Validate
}

// New constructs a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router builds the HTTP handler with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API routes on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/api/overview", s.Overview)
	r.Get("/api/eda/columns", s.EDAColumns)
	r.Get("/api/eda", s.Aggregate)
	r.Post("/api/evaluate", s.Evaluate)
	r.Post("/api/predict", s.Predict)
	r.Get("/api/history", s.History)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("api listening", "http.addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type overviewResponse struct {
	Name        string         `json:"name"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	Shape       string         `json:"shape"`
	ColumnList  []model.Column `json:"column_list"`
	Numeric     []string       `json:"numeric_columns"`
	Categorical []string       `json:"categorical_columns"`
	Header      []string       `json:"header"`
	Head        [][]string     `json:"head"`
}

// Overview describes the prediction table.
func (s *Server) Overview(w http.ResponseWriter, r *http.Request) {
	n := defaultHeadRows
	if raw := r.URL.Query().Get("rows"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > maxHeadRows {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("rows must be an integer between 0 and %d", maxHeadRows))
			return
		}
		n = parsed
	}
	ds := s.cfg.Prediction
	rows, cols := ds.Shape()
	numeric, categorical := stats.SplitColumns(ds.Columns())
	writeJSON(w, http.StatusOK, overviewResponse{
		Name:        ds.Name(),
		Rows:        rows,
		Columns:     cols,
		Shape:       stats.ShapeSentence(ds),
		ColumnList:  ds.Columns(),
		Numeric:     numeric,
		Categorical: categorical,
		Header:      ds.Header(),
		Head:        ds.Head(n),
	})
}

// EDAColumns lists the columns accepted by Aggregate.
func (s *Server) EDAColumns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"columns": eda.Columns()})
}

type aggregationResponse struct {
	Title string `json:"title"`
	model.AggregationResult
	Order []string `json:"ranking"`
}

// Aggregate returns the outcome breakdown of the column named by ?column=.
func (s *Server) Aggregate(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	res, err := eda.Aggregate(s.cfg.EDA, column)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregationResponse{
		Title:             eda.Title(res.Column),
		AggregationResult: res,
		Order:             res.Ranking(),
	})
}

type evaluateRequest struct {
	Model     string `json:"model" validate:"required"`
	Neighbors *int   `json:"k" validate:"omitempty,min=1,max=29"`
}

// Evaluate fits the requested model on the training split and scores it.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	family, err := pipeline.ParseFamily(req.Model)
	if err != nil {
		s.fail(w, err)
		return
	}
	spec := model.ModelSpec{Family: family}
	if family == model.FamilyKNN {
		spec.Neighbors = pipeline.DefaultNeighbors
		if req.Neighbors != nil {
			spec.Neighbors = *req.Neighbors
		}
	}
	res, err := pipeline.Evaluate(r.Context(), s.cfg.Prediction, spec, s.cfg.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.cfg.Journal.Evaluation(r.Context(), res)
	writeJSON(w, http.StatusOK, res)
}

type predictRequest struct {
	Genetics             *float64 `json:"genetics" validate:"required,min=0,max=1"`
	HormonalChanges      *float64 `json:"hormonal_changes" validate:"required,min=0,max=1"`
	Age                  *float64 `json:"age" validate:"required,min=1,max=100"`
	PoorHairCareHabits   *float64 `json:"poor_hair_care_habits" validate:"required,min=0,max=1"`
	EnvironmentalFactors *float64 `json:"environmental_factors" validate:"required,min=0,max=1"`
	Smoking              *float64 `json:"smoking" validate:"required,min=0,max=1"`
	WeightLoss           *float64 `json:"weight_loss" validate:"required,min=0,max=1"`
}

func (p predictRequest) input() model.PredictionInput {
	return model.PredictionInput{
		"Genetics":               *p.Genetics,
		"Hormonal Changes":       *p.HormonalChanges,
		"Age":                    *p.Age,
		"Poor Hair Care Habits ": *p.PoorHairCareHabits,
		"Environmental Factors":  *p.EnvironmentalFactors,
		"Smoking":                *p.Smoking,
		"Weight Loss ":           *p.WeightLoss,
	}
}

type predictResponse struct {
	Input model.PredictionInput `json:"input"`
	model.Prediction
}

// Predict classifies one record with the full-data neighbor model.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !s.decode(w, r, &req) {
		return
	}
	input := req.input()
	res, err := pipeline.Predict(r.Context(), s.cfg.Prediction, input, s.cfg.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.cfg.Journal.Prediction(r.Context(), input, res)
	writeJSON(w, http.StatusOK, predictResponse{Input: input, Prediction: res})
}

// History returns journal runs filtered by ?model= and ?last=.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Journal.Enabled() {
		writeError(w, http.StatusNotFound, journal.ErrDisabled.Error())
		return
	}
	var filter model.HistoryFilter
	q := r.URL.Query()
	if raw := q.Get("model"); raw != "" {
		family, err := pipeline.ParseFamily(raw)
		if err != nil {
			s.fail(w, err)
			return
		}
		filter.Family = family
	}
	if raw := q.Get("last"); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			writeError(w, http.StatusBadRequest, "last must be a non-negative integer")
			return
		}
		filter.Last = last
	}
	hist, err := s.cfg.Journal.History(r.Context(), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": nonNil(hist.Evaluations),
		"predictions": nonNil(hist.Predictions),
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() == "" {
		return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
	}
	return fmt.Sprintf("field %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, eda.ErrInvalidColumn), errors.Is(err, pipeline.ErrInvalidModelSpec):
		return http.StatusBadRequest
	case errors.Is(err, eda.ErrEmptyGroup), errors.Is(err, pipeline.ErrTraining), errors.Is(err, pipeline.ErrPrediction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing more to report to the client.
		_ = err
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
