// handlers/match_routes.go
package handlers

import (
	"grudge-match-system/middleware"
	"grudge-match-system/services"

	"github.com/gofiber/fiber/v2"
)

// MatchHandler exposes the challenge and result endpoints.
type MatchHandler struct {
	Challenges *services.ChallengeService
	Reconciler *services.ReconcilerService
}

type createChallengeRequest struct {
	OpponentID    string  `json:"opponent_id"`
	MatchType     string  `json:"match_type"`
	ChallengerRef *string `json:"challenger_ref,omitempty"`
	OpponentRef   *string `json:"opponent_ref,omitempty"`
}

type submitResultRequest struct {
	Role string `json:"role"`
	services.ResultPayload
}

// SetupMatchRoutes registers the match routes on a router that already runs
// UserContextMiddleware.
func SetupMatchRoutes(r fiber.Router, h *MatchHandler) {
	r.Post("/challenges", h.CreateChallenge)
	r.Get("/challenges", h.Inbox)

	r.Get("/matches/:id", h.GetMatch)
	r.Post("/matches/:id/accept", h.AcceptChallenge)
	r.Post("/matches/:id/result", h.SubmitResult)
}

func (h *MatchHandler) CreateChallenge(c *fiber.Ctx) error {
	var req createChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	match, err := h.Challenges.CreateMatch(c.UserContext(), services.CreateMatchInput{
		ChallengerID:  middleware.CurrentUserID(c),
		OpponentID:    req.OpponentID,
		MatchType:     req.MatchType,
		ChallengerRef: req.ChallengerRef,
		OpponentRef:   req.OpponentRef,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *MatchHandler) Inbox(c *fiber.Ctx) error {
	inbox, err := h.Challenges.Inbox(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inbox)
}

func (h *MatchHandler) GetMatch(c *fiber.Ctx) error {
	match, err := h.Challenges.GetMatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}

func (h *MatchHandler) AcceptChallenge(c *fiber.Ctx) error {
	match, err := h.Challenges.AcceptMatch(c.UserContext(), c.Params("id"), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}

func (h *MatchHandler) SubmitResult(c *fiber.Ctx) error {
	var req submitResultRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	match, err := h.Reconciler.SubmitResult(c.UserContext(), services.Submission{
		MatchID:  c.Params("id"),
		CallerID: middleware.CurrentUserID(c),
		Role:     req.Role,
		Payload:  req.ResultPayload,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}
