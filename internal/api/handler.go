package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"motor_service/internal/core"
	"motor_service/internal/domain/model"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Archiver keeps a copy of every uploaded batch.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
}

// HistoryReader lists recent predictions.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]model.PredictionRecord, error)
}

type HandlerConfig struct {
	MaxUploadBytes int64
	MaxBatchRows   int
	TestDataDir    string
	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
}

type Handler struct {
	service *core.PredictionService
	archive Archiver
	history HistoryReader
	cfg     HandlerConfig
}

// NewHandler builds the HTTP handlers. archive and history may be nil.
func NewHandler(service *core.PredictionService, archive Archiver, history HistoryReader, cfg HandlerConfig) *Handler {
	return &Handler{
		service: service,
		archive: archive,
		history: history,
		cfg:     cfg,
	}
}

func (h *Handler) Predict(c *gin.Context) {
	if _, err := h.service.ModelState().Artifacts(); err != nil {
		writeError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil || file.Filename == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file selected"})
		return
	}
	if h.cfg.MaxUploadBytes > 0 && file.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "File too large",
			Details: "limit is " + strconv.FormatInt(h.cfg.MaxUploadBytes, 10) + " bytes",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to open upload", Details: err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read upload", Details: err.Error()})
		return
	}

	ctx := c.Request.Context()
	id := uuid.New().String()
	h.archiveUpload(ctx, id, file.Filename, data)

	batch, err := core.ParseCSV(bytes.NewReader(data), h.cfg.MaxBatchRows)
	if err != nil {
		writeError(c, err)
		return
	}

	pred, err := h.service.Predict(ctx, core.PredictInput{
		ID:     id,
		Source: model.SourceUpload,
		Motor: model.MotorInfo{
			MotorType: c.DefaultPostForm("motor_type", "Unknown"),
			PhaseType: c.DefaultPostForm("phase_type", "Unknown"),
			HP:        c.DefaultPostForm("hp", "0"),
			Voltage:   c.DefaultPostForm("voltage", "0"),
		},
		Batch: batch,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPredictResponse(pred))
}

func (h *Handler) PredictThingSpeak(c *gin.Context) {
	var req ThingSpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "channel_id is required", Details: err.Error()})
		return
	}
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "channel_id is required"})
		return
	}

	pred, err := h.service.PredictThingSpeak(c.Request.Context(), channelID, req.APIKey, model.MotorInfo{
		MotorType: defaultString(req.MotorType, "Unknown"),
		PhaseType: defaultString(req.PhaseType, "Unknown"),
		HP:        defaultString(req.HP, "0"),
		Voltage:   defaultString(req.Voltage, "0"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPredictResponse(pred))
}

func (h *Handler) Health(c *gin.Context) {
	state := h.service.ModelState()
	resp := HealthResponse{
		Status:         "ok",
		ModelAvailable: state.Available(),
		SchemaVersion:  state.SchemaVersion(),
	}
	if !resp.ModelAvailable {
		resp.Status = "degraded"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	if h.history == nil {
		c.JSON(http.StatusOK, HistoryResponse{Predictions: []model.PredictionRecord{}})
		return
	}

	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to list prediction history", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list predictions", Details: err.Error()})
		return
	}
	if records == nil {
		records = []model.PredictionRecord{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Predictions: records})
}

func (h *Handler) ListTestData(c *gin.Context) {
	entries, err := os.ReadDir(h.cfg.TestDataDir)
	if err != nil {
		slog.Error("Failed to list test data", "dir", h.cfg.TestDataDir, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Error listing files", Details: err.Error()})
		return
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "Test_Data") && strings.HasSuffix(name, ".csv") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	c.JSON(http.StatusOK, TestDataResponse{Files: files})
}

func (h *Handler) DownloadTestFile(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || name == ".." {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid filename"})
		return
	}

	target := filepath.Join(h.cfg.TestDataDir, name)
	if info, err := os.Stat(target); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
		return
	}

	c.FileAttachment(target, name)
}

func (h *Handler) archiveUpload(ctx context.Context, id, filename string, data []byte) {
	if h.archive == nil {
		return
	}
	key := path.Join(id, filepath.Base(filename))
	if err := h.archive.Archive(ctx, key, data); err != nil {
		slog.Warn("Failed to archive upload", "id", id, "key", key, "error", err)
	}
}

func writeError(c *gin.Context, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: message, Details: err.Error()})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "Model files missing!"
	case errors.Is(err, model.ErrMalformedInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, model.ErrNoData):
		return http.StatusNotFound, "No data"
	default:
		return http.StatusInternalServerError, "Processing Error"
	}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
