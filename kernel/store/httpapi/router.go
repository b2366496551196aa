// Package httpapi serves a ResourceStore over HTTP for store.HTTPClient.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/openziti/rbrowse/kernel/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server holds the state shared by all handlers.
type Server struct {
	Service *store.Service
	Log     logrus.FieldLogger
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	if s.Log == nil {
		s.Log = logrus.WithField("component", "httpapi")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/clusters", s.ListClusters)
		r.Get("/clusters/{cluster}/resources/{kind}", s.ListResources)
		r.Get("/clusters/{cluster}/resources/{kind}/{name}", s.GetResource)
		r.Put("/clusters/{cluster}/resources/{kind}/{name}", s.PutResource)
		r.Delete("/clusters/{cluster}/resources/{kind}/{name}", s.DeleteResource)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Log.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"requestId": middleware.GetReqID(r.Context()),
		}).Debug("request served")
	})
}

func (s *Server) ListClusters(w http.ResponseWriter, r *http.Request) {
	ids := s.Service.Clusters()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) ListResources(w http.ResponseWriter, r *http.Request) {
	req, err := store.DecodeFetchRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.Service.List(r.Context(), chi.URLParam(r, "cluster"), model.ResourceKind(chi.URLParam(r, "kind")), req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	// Ensure we return [] not null for empty pages
	if resp.Items == nil {
		resp.Items = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.Get(r.Context(), chi.URLParam(r, "cluster"), model.ResourceKind(chi.URLParam(r, "kind")), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) PutResource(w http.ResponseWriter, r *http.Request) {
	var res model.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource: "+err.Error())
		return
	}
	res.Kind = model.ResourceKind(chi.URLParam(r, "kind"))
	res.Name = chi.URLParam(r, "name")
	stored, err := s.Service.Upsert(r.Context(), chi.URLParam(r, "cluster"), res)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) DeleteResource(w http.ResponseWriter, r *http.Request) {
	err := s.Service.Delete(r.Context(), chi.URLParam(r, "cluster"), model.ResourceKind(chi.URLParam(r, "kind")), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrBadStartKey), errors.Is(err, store.ErrBadQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.Log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
