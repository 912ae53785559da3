package api

import (
	"net/http"
	"strconv"

	"ParcSync/internal/config"
	"ParcSync/internal/repository"
	"ParcSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InterventionHandler 行动项接口：列表查询 + 工作清单重建
type InterventionHandler struct {
	worklist *service.WorklistService
	logger   *logrus.Logger
}

// NewInterventionHandler 创建 InterventionHandler
func NewInterventionHandler(db *gorm.DB, cfg *config.IngestConfig, logger *logrus.Logger) *InterventionHandler {
	return &InterventionHandler{
		worklist: service.NewWorklistService(db, logger, cfg.BatchSize),
		logger:   logger,
	}
}

// Generate 整体重建 PENDING 工作清单
// POST /api/interventions/generate
func (h *InterventionHandler) Generate(c *gin.Context) {
	created, err := h.worklist.Generate(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Generate interventions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// ListInterventions 行动项列表接口
// GET /api/interventions?priority=HIGH&status=PENDING&machine_id=42
func (h *InterventionHandler) ListInterventions(c *gin.Context) {
	machineID, _ := strconv.ParseUint(c.DefaultQuery("machine_id", "0"), 10, 64)
	filter := repository.InterventionFilter{
		Priority:  c.Query("priority"),
		Status:    c.Query("status"),
		MachineID: machineID,
	}

	result, err := h.worklist.ListInterventions(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("ListInterventions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
