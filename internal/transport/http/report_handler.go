package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/report"
	"foodpulse/pkg/contracts/domain"
)

// servable lists the report file types exposed under /charts.
var servable = map[string]string{
	".png":  "image/png",
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
}

// ReportHandler serves the manifest and files of one report directory. The
// manifest is re-read on every request so a new run shows up without a
// restart.
type ReportHandler struct {
	dir    string
	logger *slog.Logger
}

// NewReportHandler serves dir.
func NewReportHandler(dir string, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		dir:    dir,
		logger: logger.With(slog.String("handler", "report")),
	}
}

// Routes returns the JSON API routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/report", h.GetReport)
	r.Get("/views", h.ListViews)
	r.Get("/views/{name}", h.GetView)
	return r
}

// GetReport handles GET /api/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manifest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, m)
}

// ListViews handles GET /api/views
func (h *ReportHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manifest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, m.Views)
}

// GetView handles GET /api/views/{name}
func (h *ReportHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, ok := h.manifest(w, r)
	if !ok {
		return
	}
	view, found := m.View(domain.ViewName(name))
	if !found {
		apperrors.WriteError(w, apperrors.NotFoundError("view "+name))
		return
	}
	render.JSON(w, r, view)
}

// ServeFile handles GET /charts/{file}. Only plain file names with a known
// extension are served.
func (h *ReportHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	contentType, ok := servable[strings.ToLower(filepath.Ext(name))]
	if !ok || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		apperrors.WriteError(w, apperrors.NotFoundError("file "+name))
		return
	}

	f, err := os.Open(filepath.Join(h.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			apperrors.WriteError(w, apperrors.NotFoundError("file "+name))
			return
		}
		h.logger.ErrorContext(r.Context(), "cannot open report file",
			slog.String("file", name), slog.String("error", err.Error()))
		apperrors.WriteError(w, apperrors.FromError(apperrors.NewStorageError("cannot open "+name, err)))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		apperrors.WriteError(w, apperrors.NotFoundError("file "+name))
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Health handles GET /healthz. The service is healthy once the report
// directory is readable; the manifest may not exist yet.
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok", "report_dir": h.dir}
	if _, err := os.Stat(h.dir); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		status["status"] = "unavailable"
		status["error"] = err.Error()
	} else if _, err := report.ReadManifest(h.dir); err == nil {
		status["report"] = true
	} else {
		status["report"] = false
	}
	render.JSON(w, r, status)
}

func (h *ReportHandler) manifest(w http.ResponseWriter, r *http.Request) (*domain.ReportManifest, bool) {
	m, err := report.ReadManifest(h.dir)
	if err == nil {
		return m, true
	}
	if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
		apperrors.WriteError(w, apperrors.ErrReportNotFound)
		return nil, false
	}
	h.logger.ErrorContext(r.Context(), "cannot read report manifest", slog.String("error", err.Error()))
	apperrors.WriteError(w, apperrors.FromError(err))
	return nil, false
}
