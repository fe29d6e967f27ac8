package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/adapters/source"
	"chat-export-bot/internal/core/output"
	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
	"chat-export-bot/internal/server/usecase"
)

const (
	errSessionNotFound = "Сессия не найдена"
	errNoFiles         = "Не переданы файлы (поле files)"
	errBadForm         = "Не удалось разобрать форму"
	errNotJSON         = "Поддерживаются только файлы формата JSON"
	errTooLarge        = "Файл превышает допустимый размер"
	errEmptyResult     = "Нет данных о переписке. Отправьте файл, где есть участники чата."
	errUnknownFormat   = "Неизвестный формат выгрузки: допустимы auto, json, xlsx, text"
	errRender          = "Не удалось сформировать выгрузку"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type sessionKey struct{}

// sessionCtx находит сессию по параметру маршрута и кладет ее в контекст запроса.
func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
		if !ok {
			writeError(w, http.StatusNotFound, errSessionNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey{}).(*session.Session)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create()
	s.logger.Info("session created", slog.String("session_id", id))
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Stats())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Reset()
	w.WriteHeader(http.StatusNoContent)
}

type uploadResponse struct {
	Files []usecase.FileOutcome `json:"files"`
	Stats session.Stats         `json:"stats"`
}

// handleUpload принимает один или несколько файлов в поле files и объединяет их с сессией
// в порядке следования в форме. Файлы, не прошедшие проверку расширения и размера, не разбираются.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	maxSize := s.cfg.MaxUploadSize()

	// Общий лимит тела: несколько файлов максимального размера плюс служебные части формы.
	r.Body = http.MaxBytesReader(w, r.Body, 8*maxSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.logger.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, errBadForm)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, errNoFiles)
		return
	}

	resp := uploadResponse{Files: make([]usecase.FileOutcome, 0, len(headers))}
	for _, fh := range headers {
		if gateErr := checkUpload(fh, maxSize); gateErr != "" {
			resp.Files = append(resp.Files, usecase.FileOutcome{File: fh.Filename, Error: gateErr})
			continue
		}

		src, err := readUpload(fh)
		if err != nil {
			s.logger.Error("failed to read upload", slog.String("file", fh.Filename), slog.String("error", err.Error()))
			resp.Files = append(resp.Files, usecase.FileOutcome{File: fh.Filename, Error: usecase.ErrTextFetch})
			continue
		}

		outcomes, err := s.ingest.Ingest(r.Context(), sess, []ports.DataSource{src})
		resp.Files = append(resp.Files, outcomes...)
		if err != nil {
			s.logger.Warn("upload interrupted", slog.String("error", err.Error()))
			return
		}
	}

	resp.Stats = sess.Stats()
	writeJSON(w, http.StatusOK, resp)
}

func checkUpload(fh *multipart.FileHeader, maxSize int64) string {
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".json") {
		return errNotJSON
	}
	if fh.Size > maxSize {
		return errTooLarge
	}
	return ""
}

func readUpload(fh *multipart.FileHeader) (ports.DataSource, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open form file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read form file: %w", err)
	}
	return source.NewMemorySource(fh.Filename, data), nil
}

type exportResponse struct {
	ExportedAt time.Time                        `json:"exported_at"`
	Tables     map[domain.Category][]domain.Row `json:"tables"`
}

// handleExport отдает накопленные данные: format=auto выбирает текст или xlsx по порогу.
// Сессия после выгрузки не очищается, для этого есть DELETE.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	stats := sess.Stats()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "auto"
	}
	if format == "auto" {
		if output.Choose(stats.Participants, s.cfg.Processing.InlineThreshold) == output.ModeInline {
			format = "text"
		} else {
			format = "xlsx"
		}
	}

	switch format {
	case "text", "json", "xlsx":
	default:
		writeError(w, http.StatusBadRequest, errUnknownFormat)
		return
	}

	if stats.Participants == 0 && stats.FilesReceived > 0 {
		writeError(w, http.StatusUnprocessableEntity, errEmptyResult)
		return
	}

	exportedAt := time.Now().UTC()
	if stats.LastExportedAt != nil {
		exportedAt = *stats.LastExportedAt
	}

	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, output.InlineText(sess.Participants()))
	case "json":
		writeJSON(w, http.StatusOK, exportResponse{ExportedAt: exportedAt, Tables: sess.AsRows(&exportedAt)})
	case "xlsx":
		data, err := s.renderer.Render(sess.AsRows(&exportedAt))
		if err != nil {
			s.logger.Error("failed to render workbook", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, errRender)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exporter.WorkbookFileName(exportedAt)))
		_, _ = w.Write(data)
	}
}
