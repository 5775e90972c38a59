// Package server exposes the PT-JPL model over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hhkbp2/go-logging"
	"github.com/udawtr/ptjpl-go/ptjpl"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Request is the body of POST /v1/ptjpl. Fields are numbers or arrays, with
// null for missing elements. Config, when present, is applied over the
// server's configuration for this request only.
type Request struct {
	ptjpl.InputSet

	Lat    ptjpl.Field     `json:"lat,omitempty"`
	Lon    ptjpl.Field     `json:"lon,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is the body of a successful request.
type Response struct {
	Outputs  map[string]ptjpl.Field `json:"outputs"`
	Sources  map[string]string      `json:"sources"`
	GDerived bool                   `json:"G_derived"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	model  *ptjpl.Model
	logger logging.Logger
}

func New(m *ptjpl.Model) *Server {
	return &Server{model: m, logger: logging.GetLogger("ptjpl.server")}
}

// Routes returns the HTTP handler of the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.Errorf("write error: %v", err)
		}
	})
	r.Post("/v1/ptjpl", s.handleRun)
	return r
}

func (s *Server) handleRun(w http.ResponseWriter, req *http.Request) {
	var body Request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	// Config is a copy; decoding into it leaves the model untouched.
	cfg := s.model.Config()
	if len(body.Config) > 0 {
		if err := json.Unmarshal(body.Config, &cfg); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid config: %w", err))
			return
		}
	}

	in := body.InputSet
	if body.Lat != nil || body.Lon != nil {
		if len(body.Lat) != len(body.Lon) {
			s.writeError(w, http.StatusBadRequest, &ptjpl.ShapeError{Name: "lon", Len: len(body.Lon), Want: len(body.Lat), Other: "lat"})
			return
		}
		in.Geometry = ptjpl.NewSiteGeometry(body.Lat, body.Lon)
	}

	res, err := s.model.RunWithConfig(req.Context(), &in, cfg)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, Response{
		Outputs:  res.Map(),
		Sources:  res.Resolution.Sources,
		GDerived: res.GDerived,
	})
}

// statusOf maps model errors to HTTP status codes.
func statusOf(err error) int {
	var (
		shape  *ptjpl.ShapeError
		collab *ptjpl.CollaboratorError
	)
	switch {
	case errors.Is(err, ptjpl.ErrMissingInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ptjpl.ErrInvalidDomain), errors.As(err, &shape):
		return http.StatusBadRequest
	case errors.As(err, &collab):
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warnf("request failed (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("write error: %v", err)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
