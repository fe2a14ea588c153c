package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/library"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/memories"
	"github.com/yleoer/keepsake/pkg/util"
)

const maxMemoryBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type audioFilesResponse struct {
	AudioFiles []catalog.Track `json:"audioFiles"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetLoggerFromCtx(r.Context()).Warn(r.Context(), "Failed to write response", zap.Error(err))
	}
}

func enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok", Message: s.deps.Status})
}

func (s *Server) handleAudioFiles(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.deps.Catalog.ListTracks(r.Context())
	if err != nil {
		logger.GetLoggerFromCtx(r.Context()).Error(r.Context(), "Failed to list audio files", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to read audio files"})
		return
	}
	writeJSON(w, r, http.StatusOK, audioFilesResponse{AudioFiles: tracks})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	obj, err := s.deps.Catalog.StreamTrack(r.Context(), filename)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			logger.GetLoggerFromCtx(r.Context()).Info(r.Context(), "Audio file not found", zap.String("filename", filename))
			http.Error(w, "Audio file not found", http.StatusNotFound)
			return
		}
		logger.GetLoggerFromCtx(r.Context()).Error(r.Context(), "Failed to open audio file",
			zap.String("filename", filename), zap.Error(err))
		http.Error(w, "Failed to read audio file", http.StatusInternalServerError)
		return
	}
	defer obj.Close()

	enableCORS(w)
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, obj.Name, obj.ModTime, obj)
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Memories.List(r.Context())
	if err != nil {
		logger.GetLoggerFromCtx(r.Context()).Error(r.Context(), "Failed to list memories", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to read memories"})
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var m memories.NewMemory
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMemoryBody)).Decode(&m); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	saved, err := s.deps.Memories.Add(r.Context(), m)
	if err != nil {
		if errors.Is(err, memories.ErrInvalidMemory) {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		logger.GetLoggerFromCtx(r.Context()).Error(r.Context(), "Failed to add memory", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to save memory"})
		return
	}
	writeJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, "index.html", "text/html; charset=utf-8")
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.serveAsset(w, r, name, util.ContentType(name))
}

// serveAsset 从静态资源目录返回单个文件
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, name, contentType string) {
	if s.deps.Public == nil {
		http.NotFound(w, r)
		return
	}
	obj, err := s.deps.Public.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.GetLoggerFromCtx(r.Context()).Error(r.Context(), "Failed to open asset",
			zap.String("name", name), zap.Error(err))
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	defer obj.Close()
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, obj.Name, obj.ModTime, obj)
}

func serveSVG(svg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(svg))
	}
}
