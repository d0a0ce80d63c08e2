package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"earthslight/server/internal/environment"
)

type EnvironmentHandler struct {
	generator *environment.Generator
	clock     clockwork.Clock
}

func NewEnvironmentHandler(generator *environment.Generator, clock clockwork.Clock) *EnvironmentHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EnvironmentHandler{
		generator: generator,
		clock:     clock,
	}
}

// SetupEnvironmentRoutes adds the environmental risk routes to the router
func SetupEnvironmentRoutes(router *gin.Engine, handler *EnvironmentHandler) {
	group := router.Group("/api/environment")
	group.GET("/dummy-data", handler.RiskData)
	group.GET("/statistics", handler.Statistics)
	group.GET("/risks/:type", handler.RisksByType)
	group.GET("/marine-life", handler.MarineLife)
	group.GET("/marine-life/statistics", handler.MarineStatistics)
}

func (h *EnvironmentHandler) now() string {
	return h.clock.Now().UTC().Format(time.RFC3339)
}

// RiskData returns a freshly generated risk collection
func (h *EnvironmentHandler) RiskData(c *gin.Context) {
	data := h.generator.Generate()
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        data,
		"timestamp":   h.now(),
		"total_risks": len(data.Features),
		"summary":     environment.CountByType(data),
	})
}

func (h *EnvironmentHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"statistics": environment.Summarize(h.generator.Generate()),
		"timestamp":  h.now(),
	})
}

// RisksByType returns the generated risks of one type, or 404 when the type
// has none
func (h *EnvironmentHandler) RisksByType(c *gin.Context) {
	riskType := c.Param("type")
	filtered := environment.FilterByType(h.generator.Generate(), riskType)
	if len(filtered.Features) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Risk type not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"type":      riskType,
		"data":      filtered,
		"count":     len(filtered.Features),
		"timestamp": h.now(),
	})
}

// MarineLife returns marine hotspots, optionally narrowed by a species
// substring
func (h *EnvironmentHandler) MarineLife(c *gin.Context) {
	data := environment.FilterBySpecies(h.generator.MarineLife(), c.Query("species"))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"total":     len(data.Features),
		"timestamp": h.now(),
	})
}

func (h *EnvironmentHandler) MarineStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"statistics": environment.SummarizeMarine(h.generator.MarineLife()),
		"timestamp":  h.now(),
	})
}
