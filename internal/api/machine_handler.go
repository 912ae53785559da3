package api

import (
	"errors"
	"net/http"
	"strconv"

	"ParcSync/internal/repository"
	"ParcSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MachineHandler 提供给前端的机器查询接口
type MachineHandler struct {
	machineService *service.MachineService
	logger         *logrus.Logger
}

// NewMachineHandler 创建 MachineHandler
func NewMachineHandler(db *gorm.DB, logger *logrus.Logger) *MachineHandler {
	repo := repository.NewMachineRepository(db)
	svc := service.NewMachineService(repo, service.NewStatusService(), logger)
	return &MachineHandler{
		machineService: svc,
		logger:         logger,
	}
}

// ListMachines 机器列表接口（带推导状态与行动项）
// GET /api/machines?serialNumber=SN1&search=acme&limit=100&skip=0
func (h *MachineHandler) ListMachines(c *gin.Context) {
	filter := repository.MachineFilter{
		SerialNumber: c.Query("serialNumber"),
		Search:       c.Query("search"),
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1000"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	result, err := h.machineService.List(c.Request.Context(), filter, limit, skip)
	if err != nil {
		h.logger.WithError(err).Error("ListMachines failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMachine 单台机器详情
// GET /api/machines/:serial
func (h *MachineHandler) GetMachine(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serial is required"})
		return
	}

	result, err := h.machineService.Get(c.Request.Context(), serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
			return
		}
		h.logger.WithError(err).Error("GetMachine failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
