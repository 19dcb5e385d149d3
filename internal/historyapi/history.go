package historyapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const userHeader = "X-User-ID"

// Employee is one entry of a manager's filter dropdown.
type Employee struct {
	Name      string      `json:"first_name"`
	ID        string      `json:"telegram_id"`
	Role      models.Role `json:"role"`
	ManagerID *string     `json:"manager_id"`
}

type handler struct {
	store Store
}

// History returns the files the caller may see: own uploads for employees, the team's
// and their own for managers, everything for admins. Managers also get their employees.
func (h *handler) History(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(userHeader))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User information not provided"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.UserByID(ctx, userID)
	if errors.Is(err, botErrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.WithField("user_id", userID).Errorf("load user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	rows, err := h.store.HistoryFor(ctx, user)
	if err != nil {
		log.WithField("user_id", userID).Errorf("load history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rows == nil {
		rows = []models.HistoryRow{}
	}

	employees := []Employee{}
	if user.Role == models.RoleManager {
		team, err := h.store.TeamMembers(ctx, user.ID)
		if err != nil {
			log.WithField("user_id", userID).Errorf("load team: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		for _, u := range team {
			if u.Role != models.RoleEmployee {
				continue
			}
			employees = append(employees, Employee{Name: u.DisplayName, ID: u.ID, Role: u.Role, ManagerID: u.ManagerID})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"history":   rows,
		"employees": employees,
	})
}
