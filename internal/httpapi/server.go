// Package httpapi exposes one session over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ragnotes/internal/domain"
	"ragnotes/internal/session"
)

var maxUploadBytes int64 = 32 << 20

// Session is what the HTTP handlers need from a session.
type Session interface {
	ID() string
	Document() (session.Loaded, bool)
	LoadDocument(ctx context.Context, doc domain.Document) (session.Loaded, error)
	Ask(ctx context.Context, question string) (session.Answer, error)
	HistoryLen() int
	ClearHistory()
	ExportHistory(w io.Writer) error
}

// Extractor turns an uploaded file into text.
type Extractor func(name string, r io.Reader) (string, error)

type Handler struct {
	session Session
	extract Extractor
	log     zerolog.Logger
}

// NewRouter configures all routes and middleware.
func NewRouter(s Session, extract Extractor, log zerolog.Logger) http.Handler {
	h := &Handler{session: s, extract: extract, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", h.health)
	r.Post("/documents", h.uploadDocument)
	r.Post("/ask", h.ask)
	r.Get("/history", h.exportHistory)
	r.Delete("/history", h.clearHistory)
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Session  string `json:"session"`
	Document string `json:"document,omitempty"`
	Chunks   int    `json:"chunks"`
	History  int    `json:"history"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Session: h.session.ID(), History: h.session.HistoryLen()}
	if doc, ok := h.session.Document(); ok {
		resp.Document = doc.Path
		resp.Chunks = doc.Chunks
	}
	_ = WriteJSON(w, http.StatusOK, resp)
}

type documentResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
	Summary    string `json:"summary,omitempty"`
}

// uploadDocument accepts a multipart form with a "file" part, or a raw body
// named by the "name" query parameter.
func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		name string
		text string
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			if isTooLarge(ferr) {
				writeTooLarge(w, ferr)
				return
			}
			WriteError(w, domain.NewInvalidArgument("multipart upload needs a \"file\" part"))
			return
		}
		defer file.Close()
		name = header.Filename
		text, err = h.extract(name, file)
	} else {
		name = r.URL.Query().Get("name")
		if name == "" {
			name = "upload.txt"
		}
		text, err = h.extract(name, r.Body)
	}
	if err != nil {
		if isTooLarge(err) {
			writeTooLarge(w, err)
			return
		}
		WriteError(w, domain.NewInvalidArgument("could not extract text: "+err.Error()))
		return
	}

	loaded, err := h.session.LoadDocument(r.Context(), domain.Document{Path: name, Content: text})
	if err != nil {
		WriteError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, documentResponse{
		DocumentID: loaded.DocumentID,
		Name:       name,
		Chunks:     loaded.Chunks,
		Summary:    loaded.Summary,
	})
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func writeTooLarge(w http.ResponseWriter, err error) {
	_ = WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "too_large", Message: err.Error()})
}

type askRequest struct {
	Question string `json:"question"`
}

type chunkResponse struct {
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Distance float32 `json:"distance"`
}

type askResponse struct {
	Question string          `json:"question"`
	Response string          `json:"response"`
	Chunks   []chunkResponse `json:"chunks"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, domain.NewInvalidArgument("body must be {\"question\": \"...\"}"))
		return
	}
	ans, err := h.session.Ask(r.Context(), req.Question)
	if err != nil {
		WriteError(w, err)
		return
	}
	resp := askResponse{Question: ans.Question, Response: ans.Response, Chunks: make([]chunkResponse, len(ans.Hits))}
	for i, hit := range ans.Hits {
		resp.Chunks[i] = chunkResponse{Index: hit.Chunk.Index, Text: hit.Chunk.Text, Distance: hit.Distance}
	}
	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) exportHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="chat_history.json"`)
	}
	if err := h.session.ExportHistory(w); err != nil {
		h.log.Error().Err(err).Msg("export history")
	}
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.session.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}
