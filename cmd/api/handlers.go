package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paklog/wave-planning-service/internal/application"
	"github.com/paklog/wave-planning-service/internal/domain"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/middleware"
)

func registerRoutes(router *gin.Engine, service *application.WavePlanningService, scheduler *application.ReleaseScheduler, logger *logging.Logger) {
	v1 := router.Group("/api/v1")
	{
		waves := v1.Group("/waves")
		{
			waves.POST("", planWaveHandler(service))
			waves.GET("", listWavesHandler(service))
			waves.GET("/counts", waveCountsHandler(service))
			waves.GET("/zone/:zone", wavesByZoneHandler(service))
			waves.GET("/order/:orderId", wavesByOrderHandler(service))
			waves.GET("/:waveId", getWaveHandler(service))
			waves.POST("/:waveId/zone", assignZoneHandler(service))
			waves.POST("/:waveId/allocate", allocateInventoryHandler(service))
			waves.POST("/:waveId/release", releaseWaveHandler(service))
			waves.POST("/:waveId/start", startWaveHandler(service))
			waves.POST("/:waveId/complete", completeWaveHandler(service))
			waves.POST("/:waveId/cancel", cancelWaveHandler(service))
			waves.POST("/:waveId/orders", addOrdersHandler(service))
			waves.DELETE("/:waveId/orders", removeOrdersHandler(service))
			waves.PUT("/:waveId/orders", reorderOrdersHandler(service))
		}

		planning := v1.Group("/planning")
		{
			planning.POST("/capacity", planCapacityWavesHandler(service))
			planning.POST("/zone", planZoneWavesHandler(service))
			planning.POST("/carrier", planCarrierWavesHandler(service))
			planning.POST("/time", planTimeWavesHandler(service))
			planning.POST("/optimize/:waveId", optimizeWaveHandler(service))
		}

		v1.GET("/outbox/stats", outboxStatsHandler(service))

		sched := v1.Group("/scheduler")
		{
			sched.GET("/status", schedulerStatusHandler(scheduler))
			sched.POST("/start", schedulerStartHandler(scheduler, logger))
			sched.POST("/stop", schedulerStopHandler(scheduler, logger))
		}
	}
}

func planWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID        string     `json:"warehouseId" binding:"required"`
			OrderIDs           []string   `json:"orderIds" binding:"required"`
			StrategyType       string     `json:"strategyType"`
			MaxWaveSize        int        `json:"maxWaveSize"`
			MaxOrders          int        `json:"maxOrders"`
			MaxLines           int        `json:"maxLines"`
			TimeInterval       string     `json:"timeInterval"`
			Priority           string     `json:"priority"`
			PlannedReleaseTime *time.Time `json:"plannedReleaseTime"`
			CarrierCutoff      *time.Time `json:"carrierCutoff"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.PlanWaveCommand{
			WarehouseID:        req.WarehouseID,
			OrderIDs:           req.OrderIDs,
			StrategyType:       req.StrategyType,
			MaxWaveSize:        req.MaxWaveSize,
			MaxOrders:          req.MaxOrders,
			MaxLines:           req.MaxLines,
			Priority:           req.Priority,
			PlannedReleaseTime: req.PlannedReleaseTime,
			CarrierCutoff:      req.CarrierCutoff,
		}
		if req.TimeInterval != "" {
			interval, err := time.ParseDuration(req.TimeInterval)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeInterval: " + err.Error()})
				return
			}
			cmd.TimeInterval = interval
		}

		wave, err := service.PlanWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, wave)
	}
}

func listWavesHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.ListWavesQuery{
			WarehouseID: c.Query("warehouseId"),
			Status:      c.Query("status"),
		}
		waves, err := service.ListWaves(c.Request.Context(), query)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"waves": waves, "count": len(waves)})
	}
}

func waveCountsHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := service.GetWaveCounts(c.Request.Context())
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

func getWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetWaveQuery{WaveID: c.Param("waveId")}
		wave, err := service.GetWave(c.Request.Context(), query)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func wavesByZoneHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetWavesByZoneQuery{Zone: c.Param("zone")}
		waves, err := service.GetWavesByZone(c.Request.Context(), query)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"waves": waves, "count": len(waves)})
	}
}

func wavesByOrderHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetWavesByOrderQuery{OrderID: c.Param("orderId")}
		waves, err := service.GetWavesByOrder(c.Request.Context(), query)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"waves": waves, "count": len(waves)})
	}
}

func assignZoneHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Zone string `json:"zone" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.AssignZoneCommand{WaveID: c.Param("waveId"), Zone: req.Zone}
		wave, err := service.AssignZone(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func allocateInventoryHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		wave, err := service.MarkInventoryAllocated(c.Request.Context(), c.Param("waveId"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func releaseWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := application.ReleaseWaveCommand{WaveID: c.Param("waveId")}
		wave, err := service.ReleaseWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func startWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := application.StartWaveCommand{WaveID: c.Param("waveId")}
		wave, err := service.StartWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func completeWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := application.CompleteWaveCommand{WaveID: c.Param("waveId")}
		wave, err := service.CompleteWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func cancelWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CancelWaveCommand{WaveID: c.Param("waveId"), Reason: req.Reason}
		wave, err := service.CancelWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func addOrdersHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderIDs, ok := bindOrderIDs(c)
		if !ok {
			return
		}
		cmd := application.AddOrdersCommand{WaveID: c.Param("waveId"), OrderIDs: orderIDs}
		wave, err := service.AddOrders(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func removeOrdersHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderIDs, ok := bindOrderIDs(c)
		if !ok {
			return
		}
		cmd := application.RemoveOrdersCommand{WaveID: c.Param("waveId"), OrderIDs: orderIDs}
		wave, err := service.RemoveOrders(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func reorderOrdersHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderIDs, ok := bindOrderIDs(c)
		if !ok {
			return
		}
		cmd := application.ReorderOrdersCommand{WaveID: c.Param("waveId"), OrderIDs: orderIDs}
		wave, err := service.ReorderOrders(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func bindOrderIDs(c *gin.Context) ([]string, bool) {
	var req struct {
		OrderIDs []string `json:"orderIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return req.OrderIDs, true
}

func planCapacityWavesHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindPlanningRequest(c)
		if !ok {
			return
		}
		cmd := application.PlanCapacityWavesCommand{WarehouseID: req.WarehouseID, Orders: req.Orders}
		result, err := service.PlanCapacityWaves(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func planZoneWavesHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindPlanningRequest(c)
		if !ok {
			return
		}
		cmd := application.PlanZoneWavesCommand{WarehouseID: req.WarehouseID, Orders: req.Orders}
		result, err := service.PlanZoneWaves(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func planCarrierWavesHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID string               `json:"warehouseId" binding:"required"`
			Orders      []domain.Order       `json:"orders" binding:"required"`
			Cutoffs     map[string]time.Time `json:"cutoffs"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.PlanCarrierWavesCommand{
			WarehouseID: req.WarehouseID,
			Orders:      req.Orders,
			Cutoffs:     req.Cutoffs,
		}
		result, err := service.PlanCarrierWaves(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func planTimeWavesHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID string         `json:"warehouseId" binding:"required"`
			Orders      []domain.Order `json:"orders" binding:"required"`
			Window      string         `json:"window"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.PlanTimeWavesCommand{WarehouseID: req.WarehouseID, Orders: req.Orders}
		if req.Window != "" {
			window, err := time.ParseDuration(req.Window)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window: " + err.Error()})
				return
			}
			cmd.Window = window
		}

		result, err := service.PlanTimeWaves(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func optimizeWaveHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Orders                 []domain.Order `json:"orders" binding:"required"`
			MinimizeTravelDistance bool           `json:"minimizeTravelDistance"`
			BalanceWorkload        bool           `json:"balanceWorkload"`
			PrioritizeSLA          bool           `json:"prioritizeSla"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.OptimizeWaveCommand{
			WaveID: c.Param("waveId"),
			Orders: req.Orders,
			Criteria: application.OptimizationCriteria{
				MinimizeTravelDistance: req.MinimizeTravelDistance,
				BalanceWorkload:        req.BalanceWorkload,
				PrioritizeSLA:          req.PrioritizeSLA,
			},
		}
		wave, err := service.OptimizeWave(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

type planningRequest struct {
	WarehouseID string         `json:"warehouseId" binding:"required"`
	Orders      []domain.Order `json:"orders" binding:"required"`
}

func bindPlanningRequest(c *gin.Context) (*planningRequest, bool) {
	var req planningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &req, true
}

func outboxStatsHandler(service *application.WavePlanningService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := service.GetOutboxStats(c.Request.Context())
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// Scheduler handlers
func schedulerStatusHandler(scheduler *application.ReleaseScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"running": scheduler.IsRunning(),
		})
	}
}

func schedulerStartHandler(scheduler *application.ReleaseScheduler, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if scheduler.IsRunning() {
			c.JSON(http.StatusOK, gin.H{"message": "Scheduler already running"})
			return
		}
		if err := scheduler.Start(c.Request.Context()); err != nil {
			logger.WithError(err).Error("Failed to start scheduler")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		logger.Info("Scheduler started via API")
		c.JSON(http.StatusOK, gin.H{"message": "Scheduler started"})
	}
}

func schedulerStopHandler(scheduler *application.ReleaseScheduler, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !scheduler.IsRunning() {
			c.JSON(http.StatusOK, gin.H{"message": "Scheduler already stopped"})
			return
		}
		scheduler.Stop()
		logger.Info("Scheduler stopped via API")
		c.JSON(http.StatusOK, gin.H{"message": "Scheduler stopped"})
	}
}
