package api

import (
	"net/http"

	"ParcSync/internal/config"
	"ParcSync/internal/service"
	"ParcSync/internal/utils/httpclient"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngestHandler 导入接口：文件上传 + 按URL拉取
type IngestHandler struct {
	ingestion   *service.IngestionService
	fetch       *service.FetchService
	logger      *logrus.Logger
	maxUploadMB int64
}

// NewIngestHandler 创建 IngestHandler
func NewIngestHandler(db *gorm.DB, cfg *config.IngestConfig, logger *logrus.Logger) *IngestHandler {
	ingestion := service.NewIngestionService(db, logger, cfg.BatchSize)
	fetch := service.NewFetchService(httpclient.NewHTTPClient(cfg, logger), ingestion, logger)
	return &IngestHandler{
		ingestion:   ingestion,
		fetch:       fetch,
		logger:      logger,
		maxUploadMB: int64(cfg.MaxUploadMB),
	}
}

// Upload 上传Excel导出并导入
// POST /api/ingest/upload  (multipart field: file)
func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > h.maxUploadMB*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("打开上传文件失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	report, err := h.ingestion.IngestFile(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		h.logger.WithError(err).Error("Upload ingest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// FromURL 按URL拉取Excel导出并导入
// POST /api/ingest/url  {"url": "https://..."}
func (h *IngestHandler) FromURL(c *gin.Context) {
	var body struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	report, err := h.fetch.IngestFromURL(c.Request.Context(), body.URL)
	if err != nil {
		h.logger.WithError(err).Error("URL ingest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
