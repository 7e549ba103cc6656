// handlers/admin_routes.go
package handlers

import (
	"grudge-match-system/middleware"
	"grudge-match-system/services"
	"grudge-match-system/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminRole is the gateway role allowed on /admin routes.
const AdminRole = "admin"

type AdminHandler struct {
	Stats *services.StatsService
}

func SetupAdminRoutes(r fiber.Router, h *AdminHandler) {
	admin := r.Group("/admin", middleware.RequireRole(AdminRole))
	admin.Post("/audit", h.RunAudit)
}

// RunAudit compares every stats row with the completed matches on demand and
// returns the rows that drifted.
func (h *AdminHandler) RunAudit(c *fiber.Ctx) error {
	drift, err := h.Stats.Audit(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	utils.L().Info("[AUDIT] manual stats audit",
		zap.String("requested_by", middleware.CurrentUserID(c)),
		zap.Int("drift", len(drift)),
	)
	if drift == nil {
		drift = []services.StatsDrift{}
	}
	return c.JSON(fiber.Map{"drift": drift})
}
