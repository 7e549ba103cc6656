// handlers/stats_routes.go
package handlers

import (
	"grudge-match-system/services"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler serves per-user stats, badges, the leaderboard and user search.
type StatsHandler struct {
	Stats       *services.StatsService
	Badges      *services.BadgeService
	Leaderboard *services.LeaderboardService
	Users       *services.UserService
}

func SetupStatsRoutes(r fiber.Router, h *StatsHandler) {
	r.Get("/users/search", h.SearchUsers)
	r.Get("/users/:id/stats", h.UserStats)
	r.Get("/users/:id/badges", h.UserBadges)
	r.Get("/leaderboard", h.GetLeaderboard)
}

func (h *StatsHandler) UserStats(c *fiber.Ctx) error {
	st, err := h.Stats.GetStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

func (h *StatsHandler) UserBadges(c *fiber.Ctx) error {
	badges, err := h.Badges.UserBadges(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"badges": badges})
}

func (h *StatsHandler) GetLeaderboard(c *fiber.Ctx) error {
	sortBy := c.Query("sort_by")
	rows, err := h.Leaderboard.Top(c.UserContext(), sortBy, c.QueryInt("limit", services.DefaultLeaderboardLimit))
	if err != nil {
		return respondError(c, err)
	}
	if sortBy == "" {
		sortBy = services.DefaultLeaderboardSort
	}
	return c.JSON(fiber.Map{
		"sort_by": sortBy,
		"entries": rows,
	})
}

func (h *StatsHandler) SearchUsers(c *fiber.Ctx) error {
	users, err := h.Users.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
