// Package server 분석 API HTTP 서버.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akfldk1028/KAT-sub000/internal/agent"
	"github.com/akfldk1028/KAT-sub000/internal/apperrors"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/core"
)

// Server 분석 API 서버
type Server struct {
	manager *agent.Manager
	loader  *catalog.Loader
	router  chi.Router
}

// New 서버 생성 및 라우터 구성
func New(manager *agent.Manager, loader *catalog.Loader) *Server {
	s := &Server{manager: manager, loader: loader}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/v1/analyze/outgoing", s.handleOutgoing)
	r.Post("/v1/analyze/incoming", s.handleIncoming)
	r.Post("/v1/catalogs/reload", s.handleReload)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler 라우터 반환
func (s *Server) Handler() http.Handler {
	return s.router
}

// errorEnvelope 오류 응답 포맷
type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleOutgoing(w http.ResponseWriter, r *http.Request) {
	var req core.AnalyzeOutgoingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	resp, err := s.manager.Outgoing.Analyze(r.Context(), req)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	var req core.AnalyzeIncomingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	resp, err := s.manager.Incoming.Analyze(r.Context(), req)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.Reload(); err != nil {
		log.Printf("[ERROR] 카탈로그 재로드 실패: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "catalog reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"pii_version":    s.loader.PII().Version,
		"threat_version": s.loader.Threat().Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAnalysisError 내부 오류 상세를 응답에 노출하지 않는다
func writeAnalysisError(w http.ResponseWriter, err error) {
	if apperrors.IsInvalidRequest(err) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	log.Printf("[ERROR] 분석 실패: %v", err)
	writeError(w, http.StatusInternalServerError, "internal", "analysis failed")
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorEnvelope{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] 응답 직렬화 실패: %v", err)
	}
}
