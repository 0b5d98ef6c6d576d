// internal/web/handlers.go
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleetwatch/internal/database"
	"fleetwatch/internal/monitoring"
)

// receiveHeartbeat is the ingestion endpoint. Malformed ids or timestamps
// are rejected here; the evaluator behind it assumes validity.
func (s *Server) receiveHeartbeat(c *gin.Context) {
	componentID := c.Param("id")

	var sig monitoring.HeartbeatSignal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.engine.Heartbeat().Ingest(c.Request.Context(), componentID, sig)
	if err != nil {
		if errors.Is(err, monitoring.ErrInvalidComponentID) || errors.Is(err, monitoring.ErrInvalidTimestamp) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).WithField("component", componentID).Error("Failed to ingest heartbeat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store heartbeat"})
		return
	}

	s.metrics.RecordHeartbeat(componentID)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Heartbeat received",
		"component_id": componentID,
		"received_at":  rec.ReceivedAt,
	})
}

func (s *Server) getFleetStatus(c *gin.Context) {
	fleet, err := s.engine.Aggregator().FleetStatus(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to aggregate fleet status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	c.JSON(http.StatusOK, fleet)
}

func (s *Server) getComponentStatus(c *gin.Context) {
	componentID := c.Param("id")

	status, err := s.engine.Aggregator().ComponentStatus(c.Request.Context(), componentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Component not found"})
			return
		}
		logrus.WithError(err).WithField("component", componentID).Error("Failed to get component status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) getAlerts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	alerts, err := s.store.GetAlerts(c.Request.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to get alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  alerts,
		"count": len(alerts),
	})
}

// deleteComponent removes all records for one component. Records
// reappear on the next signal or tick if the component is still
// configured; this exists to clean up after decommissioned components.
func (s *Server) deleteComponent(c *gin.Context) {
	componentID := c.Param("id")

	if err := s.store.DeleteComponent(c.Request.Context(), componentID); err != nil {
		logrus.WithError(err).WithField("component", componentID).Error("Failed to delete component records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete component"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"component_id": componentID,
	})
}
