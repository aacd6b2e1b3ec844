// handlers/gamification_routes.go
package handlers

import (
	"errors"
	"strconv"

	"service-market-gamification/models"
	"service-market-gamification/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps core sentinel errors to HTTP responses; anything else
// is a generic 500 without internal detail.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	case errors.Is(err, services.ErrInvalidXPAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "xp amount must be positive"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func userIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}

func SetupGamificationRoutes(app *fiber.App, gamification *services.GamificationService, referrals *services.ReferralService, leaderboard *services.LeaderboardService) {
	// Internal/admin grant endpoint — the web layer calls this when an
	// order completes, a review lands, etc.
	app.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID      uint           `json:"user_id"`
			Amount      int            `json:"amount"`
			Source      string         `json:"source"`
			Description string         `json:"description"`
			Metadata    map[string]any `json:"metadata"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Source == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "source is required"})
		}

		result, err := gamification.AddXP(req.UserID, req.Amount, req.Source, req.Description, req.Metadata)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	app.Get("/user/:id/level", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		level, err := gamification.GetUserLevel(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(level)
	})

	app.Get("/user/:id/stats", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		stats, err := gamification.GetUserStats(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(stats)
	})

	app.Get("/user/:id/achievements", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		achievements, err := gamification.GetUserAchievements(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(achievements)
	})

	app.Post("/user/:id/achievements/check", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		granted, err := gamification.CheckAchievements(userID)
		if err != nil {
			return serviceError(c, err)
		}
		if granted == nil {
			granted = []models.Achievement{}
		}
		return c.JSON(granted)
	})

	app.Get("/user/:id/xp/history", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))

		entries, total, err := gamification.GetXPHistory(userID, page, size)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"entries": entries,
			"total":   total,
			"page":    page,
			"size":    size,
		})
	})

	app.Post("/user/:id/referral/code", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		code, err := referrals.CreateReferralCode(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"code": code})
	})

	app.Post("/user/:id/referral/use", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := referrals.UseReferralCode(userID, req.Code)
		if err != nil {
			return serviceError(c, err)
		}
		if !result.Success {
			return c.Status(fiber.StatusConflict).JSON(result)
		}
		return c.JSON(result)
	})

	app.Get("/user/:id/referral/stats", func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		stats, err := referrals.GetReferralStats(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(stats)
	})

	app.Post("/referral/subscription", func(c *fiber.Ctx) error {
		var req struct {
			ReferredUserID uint `json:"referred_user_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		rewarded, err := referrals.RewardReferralSubscription(req.ReferredUserID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"rewarded": rewarded})
	})

	app.Get("/leaderboard/:role", func(c *fiber.Ctx) error {
		if leaderboard == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "leaderboard unavailable"})
		}
		role := models.Role(c.Params("role"))
		if role != models.RoleClient && role != models.RoleExecutor {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role must be client or executor"})
		}
		n, _ := strconv.Atoi(c.Query("limit", "10"))

		entries, err := leaderboard.Top(c.Context(), role, n)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "leaderboard query failed"})
		}
		return c.JSON(entries)
	})
}
