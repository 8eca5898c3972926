package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/message"
)

// Router returns the read-only HTTP API served next to gRPC.
//
//	GET /healthz             liveness
//	GET /history             records without images (?images=1 to include)
//	GET /history/{id}/image  raw image bytes
//	GET /storage             storage summary
//	GET /status              daemon status
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/history", s.handleHistory)
	r.Get("/history/{id}/image", s.handleImage)
	r.Get("/storage", s.handleStorage)
	r.Get("/status", s.handleStatus)
	return r
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	withImages, _ := strconv.ParseBool(r.URL.Query().Get("images"))
	res, err := s.History(r.Context(), &message.HistoryRequest{WithImages: withImages})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Service) handleImage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Get(r.Context(), &message.IDRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	mime, data, err := imagedata.Decode(rec.ImageData)
	if err != nil {
		writeError(w, toStatus(err))
		return
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `inline; filename="`+rec.ID+imagedata.Extension(mime)+`"`)
	_, _ = w.Write(data)
}

func (s *Service) handleStorage(w http.ResponseWriter, r *http.Request) {
	res, err := s.StorageInfo(r.Context(), &message.Empty{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.Status(r.Context(), &message.Empty{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("http response encode failed", "err", err)
	}
}

var httpStatus = map[codes.Code]int{
	codes.NotFound:           http.StatusNotFound,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.AlreadyExists:      http.StatusConflict,
	codes.FailedPrecondition: http.StatusConflict,
	codes.ResourceExhausted:  http.StatusInsufficientStorage,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.Canceled:           499,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}

func writeError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	code, ok := httpStatus[st.Code()]
	if !ok {
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": st.Message()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
