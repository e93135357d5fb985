package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealradar/config"
	"dealradar/internal/database"
	"dealradar/internal/ledger"
)

// ScanTrigger starts one scan cycle; satisfied by scheduler.Scheduler.
type ScanTrigger interface {
	RunScan()
}

type Handler struct {
	db      *database.Database
	ledger  *ledger.Ledger
	trigger ScanTrigger
	logger  *logrus.Logger
}

func NewHandler(db *database.Database, dedup *ledger.Ledger, trigger ScanTrigger, logger *logrus.Logger) *Handler {
	return &Handler{
		db:      db,
		ledger:  dedup,
		trigger: trigger,
		logger:  logger,
	}
}

// GetStatus reports ledger and cache counters.
func (h *Handler) GetStatus(c *gin.Context) {
	seen, err := h.ledger.Count()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count seen ads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count seen ads"})
		return
	}

	groups, err := h.db.CountMarketStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count market stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count market stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"seen_ads":      seen,
		"market_groups": groups,
	})
}

// TriggerScan kicks off a scan cycle in the background.
func (h *Handler) TriggerScan(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	go h.trigger.RunScan()
	c.JSON(http.StatusAccepted, gin.H{"status": "scan started"})
}

// GetGroupStats looks up the cached market statistics for a group key
// passed in the "key" query parameter.
func (h *Handler) GetGroupStats(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key parameter"})
		return
	}

	row, err := h.db.GetMarketStats(key)
	if err != nil {
		h.logger.WithError(err).WithField("group_key", key).Error("Failed to query market stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query market stats"})
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statistics for group"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// GetHardCaps returns the current hard-cap rule table.
func (h *Handler) GetHardCaps(c *gin.Context) {
	c.JSON(http.StatusOK, config.GetHardCaps())
}

// UpdateHardCaps replaces the hard-cap rule table in memory.
func (h *Handler) UpdateHardCaps(c *gin.Context) {
	var rules map[string]float64
	if err := c.ShouldBindJSON(&rules); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule table"})
		return
	}

	config.SetHardCaps(rules)
	c.JSON(http.StatusOK, gin.H{"rules": len(rules)})
}
