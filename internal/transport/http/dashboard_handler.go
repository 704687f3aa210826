package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/exporter"
	mw "studentpulse/internal/middleware"
	"studentpulse/internal/services"
	api "studentpulse/pkg/contracts/api/v1"
)

// ExportBaseName is the download name of exported selections, without extension
const ExportBaseName = "filtered_students"

// DashboardHandler handles the dashboard views with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *mw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *mw.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes. Mount under /api.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/students", h.GetStudents)
		r.Get("/summary", h.GetSummary)
		r.Get("/charts", h.GetCharts)

		r.Route("/dataset", func(r chi.Router) {
			r.Get("/", h.GetDataset)
			r.With(mw.AuditLog(h.logger)).Post("/reload", h.ReloadDataset)
		})
	})

	r.Get("/export/{format}", h.Export)

	return r
}

// query binds and validates the filter parameters
func (h *DashboardHandler) query(r *http.Request) (services.Query, error) {
	params, err := bindFilter(r.URL.Query())
	if err != nil {
		return services.Query{}, err
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		return services.Query{}, err
	}
	return toQuery(params)
}

func toQuery(params api.FilterParams) (services.Query, error) {
	q, err := services.ParseQuery(params.Grades, params.Attendance, params.Strict)
	if err != nil {
		return services.Query{}, translateServiceError(err)
	}
	return q, nil
}

// GetStudents handles GET /api/students
func (h *DashboardHandler) GetStudents(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Students(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateServiceError(err))
		return
	}

	render.JSON(w, r, resp)
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Summary(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateServiceError(err))
		return
	}

	render.JSON(w, r, resp)
}

// GetCharts handles GET /api/charts
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	params, err := bindChart(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q, err := toQuery(params.FilterParams)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Charts(r.Context(), q, services.ChartOptions{
		Subject: params.Subject,
		Bins:    params.Bins,
		Top:     params.Top,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, translateServiceError(err))
		return
	}

	render.JSON(w, r, resp)
}

// Export handles GET /api/export/{format}. The file is rendered in full
// before any byte is sent so failures still produce a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := bindFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	params := api.ExportParams{FilterParams: filter, Format: chi.URLParam(r, "format")}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(params.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}
	q, err := toQuery(params.FilterParams)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), q, format, &buf); err != nil {
		h.errorHandler.HandleError(w, r, translateServiceError(err))
		return
	}

	filename := format.Filename(ExportBaseName)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}

// ReloadDataset handles POST /api/dataset/reload
func (h *DashboardHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "dataset reload requested", slog.String("request_id", reqID))

	status, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, status)
}

// translateServiceError maps query sentinels to 400 responses and passes
// everything else through to the error handler's own mapping.
func translateServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidGrade):
		return apierrors.ErrValidation("grade", err.Error())
	case errors.Is(err, services.ErrInvalidLevel):
		return apierrors.ErrValidation("attendance", err.Error())
	case errors.Is(err, services.ErrUnknownSubject):
		return apierrors.ErrValidation("subject", err.Error())
	case errors.Is(err, services.ErrInvalidChartArg):
		return apierrors.ErrValidation("chart", err.Error())
	}
	return err
}
