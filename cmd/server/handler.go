package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"quoteservice/internal/metrics"
	"quoteservice/internal/quote"
)

type quoteResponse struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// quoteService is the part of *quote.Service the handler needs.
type quoteService interface {
	Lookup(ctx context.Context, raw string) (quote.Result, error)
}

func newHandler(svc quoteService, m *metrics.Metrics, log *zap.Logger) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	api.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		handleQuote(w, r, svc, m, log)
	})

	root := http.NewServeMux()
	// promhttp negotiates its own compression and content type
	root.Handle("/metrics", m.Handler())
	root.Handle("/", withRequestLog(withJSONHeaders(withGzip(recoverPanic(api, log))), log))
	return root
}

func handleQuote(w http.ResponseWriter, r *http.Request, svc quoteService, m *metrics.Metrics, log *zap.Logger) {
	raw := r.URL.Query().Get("ticker")
	res, err := svc.Lookup(r.Context(), raw)
	if err != nil {
		code, msg := classify(err, raw)
		if code == http.StatusInternalServerError {
			log.Error("quote lookup failed", zap.String("ticker", raw), zap.Error(err))
		}
		m.ObserveRequest(code)
		writeJSON(w, code, errorResponse{Error: msg})
		return
	}
	m.ObserveRequest(http.StatusOK)
	writeJSON(w, http.StatusOK, quoteResponse{Price: res.Price, Timestamp: res.FormatTimestamp()})
}

// classify maps a lookup error to a status code and a message safe to show clients.
func classify(err error, raw string) (int, string) {
	switch {
	case errors.Is(err, quote.ErrInvalidInput):
		return http.StatusBadRequest, "Ticker must be alphabetic characters only."
	case errors.Is(err, quote.ErrNotFound):
		return http.StatusNotFound, fmt.Sprintf("Ticker %s not found.", strings.ToUpper(raw))
	case errors.Is(err, quote.ErrUpstream):
		return http.StatusBadGateway, "Upstream request failed."
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog emits one line per request.
func withRequestLog(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
