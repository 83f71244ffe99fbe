package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"

	"linediff.znkr.io/diff"
	"linediff.znkr.io/reporter/report"
)

// maxBodyBytes limits the size of API request bodies.
const maxBodyBytes = 8 << 20

type handler struct {
	set atomic.Pointer[report.Set]
}

// request is the body of all API requests. A null or missing text is an empty text.
type request struct {
	Old *string `json:"old"`
	New *string `json:"new"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s := h.set.Load()

	switch req.URL.Path {
	case "/api/diff":
		h.serveAPI(w, req, func(old, new string) (any, error) {
			return s.Differ().Compute(old, new)
		})
		return
	case "/api/summary":
		h.serveAPI(w, req, func(old, new string) (any, error) {
			summary, err := s.Differ().Summarize(old, new)
			return summaryResponse{summary}, err
		})
		return
	}

	switch req.Method {
	case http.MethodGet:
	case http.MethodHead:
	default:
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	doc := s.Doc(req.URL.EscapedPath())
	if doc == nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		if req.Method == http.MethodGet {
			w.Write([]byte("not found"))
		}
		return
	}

	w.Header().Set("Content-Type", doc.MimeType())
	if req.Method == http.MethodHead {
		return
	}

	b, err := s.RenderPage(doc)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		log.Printf("failed to serve %v: %v", req.URL.EscapedPath(), err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *handler) serveAPI(w http.ResponseWriter, req *http.Request, fn func(old, new string) (any, error)) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"})
		return
	}

	var r request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		var mberr *http.MaxBytesError
		if errors.As(err, &mberr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request: " + err.Error()})
		return
	}

	resp, err := fn(diff.Deref(r.Old), diff.Deref(r.New))
	switch {
	case errors.Is(err, diff.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{err.Error()})
	case err != nil:
		log.Printf("failed to serve %v: %v", req.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		log.Printf("failed to encode response: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(b, '\n')); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
