package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
	"AquaWatch/internal/hub"
	"AquaWatch/internal/usecase"
	xhttp "AquaWatch/pkg/http"
	xlogger "AquaWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultPondID = "POND_01"

// DashboardHandler exposes the ingestion, history and prioritization API.
type DashboardHandler struct {
	logger     *xlogger.Logger
	processor  *usecase.SampleProcessor
	prioritize *usecase.PrioritizeUseCase
	history    domrepo.HistoryStore
	hub        *hub.Hub
}

func NewDashboardHandler(
	logger *xlogger.Logger,
	processor *usecase.SampleProcessor,
	prioritize *usecase.PrioritizeUseCase,
	history domrepo.HistoryStore,
	h *hub.Hub,
) *DashboardHandler {
	return &DashboardHandler{
		logger:     logger,
		processor:  processor,
		prioritize: prioritize,
		history:    history,
		hub:        h,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	d := e.Group("/dashboard")
	d.POST("/predict_all", h.PredictAll)
	d.POST("/predict_batch", h.PredictBatch)
	d.GET("/latest", h.Latest)
	d.GET("/history", h.History)
	d.GET("/history.csv", h.HistoryCSV)

	g := e.Group("/api")
	g.GET("/prioritize", h.Prioritize)
	g.GET("/hub/status", h.HubStatus)

	e.GET("/ws/sensors", h.SensorsWS)
	e.GET("/health", h.Health)
}

// PredictAll ingests one sample and returns the full ensemble output. The
// response body carries the raw prediction keys, not the API envelope, so
// existing dashboard consumers keep working.
func (h *DashboardHandler) PredictAll(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	pond := c.QueryParam("pond")
	if pond == "" {
		pond = defaultPondID
	}

	sample, err := usecase.ParseSample(pond, 0, req.Input)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	preds, _, err := h.processor.ProcessSample(c.Request().Context(), sample)
	if err != nil {
		h.logger.Error("predict_all failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("prediction failed").WithError(err))
	}

	return c.JSON(http.StatusOK, models.PredictResponse{
		RF:              preds.Continuous,
		SVM:             preds.Classification,
		KNN:             models.KNNEstimate{DO: preds.FallbackDO},
		KNNFallbackUsed: preds.FallbackUsed,
	})
}

// PredictBatch scores an uploaded CSV of samples and streams the scored CSV
// back as an attachment. Nothing is persisted or broadcast.
func (h *DashboardHandler) PredictBatch(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, "csv file upload required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return xhttp.BadRequestResponse(c, "cannot open upload")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return xhttp.BadRequestResponse(c, "csv header required")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="predictions.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	outHeader := append(append([]string{}, header...),
		"rf_do", "rf_ph", "rf_ammonia", "svm_class", "svm_label", "knn_do", "knn_fallback_used")
	if err := w.Write(outHeader); err != nil {
		return err
	}

	ctx := c.Request().Context()
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		if len(row) != len(header) {
			continue
		}

		input := make(map[string]interface{}, len(header))
		for i, name := range header {
			if row[i] != "" {
				input[name] = row[i]
			}
		}

		out := append([]string{}, row...)
		sample, perr := usecase.ParseSample(defaultPondID, 0, input)
		if perr != nil {
			out = append(out, "", "", "", "", "invalid row", "", "")
			_ = w.Write(out)
			continue
		}
		preds, ierr := h.processor.Infer(ctx, sample)
		if ierr != nil {
			out = append(out, "", "", "", "", "inference error", "", "")
			_ = w.Write(out)
			continue
		}

		out = append(out,
			formatFloat(preds.Continuous.DO),
			formatFloat(preds.Continuous.PH),
			formatFloat(preds.Continuous.Ammonia),
			strconv.Itoa(preds.Classification.Class),
			preds.Classification.Label,
			formatFloat(preds.FallbackDO),
			strconv.FormatBool(preds.FallbackUsed))
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Latest returns the most recent history record.
func (h *DashboardHandler) Latest(c echo.Context) error {
	rec, err := h.history.Latest(c.Request().Context())
	if err != nil {
		if errors.Is(err, domrepo.ErrNoHistory) {
			return xhttp.NotFoundResponse(c, "no samples ingested yet")
		}
		h.logger.Error("latest query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, rec)
}

// History returns up to limit records, most recent first.
func (h *DashboardHandler) History(c echo.Context) error {
	q := &models.HistoryQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	recs, err := h.history.Range(c.Request().Context(), q.Limit, false)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

// HistoryCSV streams the history as a CSV attachment.
func (h *DashboardHandler) HistoryCSV(c echo.Context) error {
	q := &models.HistoryCSVQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="history_%s.csv"`, time.Now().UTC().Format("20060102T150405")))
	c.Response().WriteHeader(http.StatusOK)

	if err := h.history.ExportCSV(c.Request().Context(), q.Limit, c.Response()); err != nil {
		// headers are gone; all we can do is log
		h.logger.Error("history csv export failed", xlogger.Error(err))
		return err
	}
	return nil
}

// Prioritize returns the cross-pond priority snapshot.
func (h *DashboardHandler) Prioritize(c echo.Context) error {
	res, err := h.prioritize.Prioritize(c.Request().Context())
	if err != nil {
		h.logger.Error("prioritize failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.JSON(http.StatusOK, res)
}

// HubStatus reports subscriber count and recent connection events.
func (h *DashboardHandler) HubStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.hub.Status())
}

// SensorsWS upgrades to the live sensor feed.
func (h *DashboardHandler) SensorsWS(c echo.Context) error {
	return h.hub.ServeWS(c.Response(), c.Request())
}

// Health reports process and storage liveness.
func (h *DashboardHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok", "storage": "ok"}
	code := http.StatusOK
	if err := h.history.Health(c.Request().Context()); err != nil {
		status["status"] = "degraded"
		status["storage"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
