package handlers

import (
	"strconv"
	"time"

	"wildlife-progress/logger"
	"wildlife-progress/middleware"
	"wildlife-progress/models"
	"wildlife-progress/services"

	"github.com/gofiber/fiber/v2"
)

// ProfileView is the profile as returned to game and profile pages.
type ProfileView struct {
	Username   string           `json:"username"`
	Handle     string           `json:"handle"`
	AvatarSeed string           `json:"avatarSeed"`
	Stats      models.UserStats `json:"stats"`
	Level      models.LevelInfo `json:"level"`
}

func newProfileView(p *models.UserProfile, levels *services.LevelCalculator) ProfileView {
	return ProfileView{
		Username:   p.Username,
		Handle:     services.ProfileHandle(p.Username),
		AvatarSeed: p.AvatarSeed,
		Stats:      p.Stats,
		Level:      levels.Calculate(p.Stats.TotalScore),
	}
}

type RouteOptions struct {
	RequireUserID  bool
	StreamInterval time.Duration
}

func SetupProgressionRoutes(app *fiber.App, progress *services.ProgressionService, log *logger.Logger, opts RouteOptions) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Catalog routes, no user context
	app.Get("/levels", func(c *fiber.Ctx) error {
		return c.JSON(progress.Levels.Tiers())
	})

	app.Get("/levels/:score", func(c *fiber.Ctx) error {
		score, err := strconv.ParseInt(c.Params("score"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score must be an integer"})
		}
		return c.JSON(progress.LevelInfo(score))
	})

	app.Get("/achievements", func(c *fiber.Ctx) error {
		return c.JSON(progress.Catalog.All())
	})

	user := app.Group("/user", middleware.UserContextMiddleware(opts.RequireUserID))

	user.Get("/profile", func(c *fiber.Ctx) error {
		prof, err := progress.LoadProfile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newProfileView(prof, progress.Levels))
	})

	user.Put("/profile", func(c *fiber.Ctx) error {
		var req renameRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		prof, err := progress.RenameProfile(c.UserContext(), middleware.UserID(c), req.Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newProfileView(prof, progress.Levels))
	})

	user.Post("/stats", func(c *fiber.Ctx) error {
		var req updateStatsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		prof, err := progress.UpdateStats(c.UserContext(), middleware.UserID(c), req.ScoreChange, req.IncrementGamesPlayed)
		if err != nil {
			log.Warn("stats update not saved", "error", err, "score_change", req.ScoreChange)
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"saved":   true,
			"profile": newProfileView(prof, progress.Levels),
		})
	})

	user.Post("/achievements/:id", func(c *fiber.Ctx) error {
		params := achievementParams{ID: c.Params("id")}
		if err := validateStruct(&params); err != nil {
			return respondError(c, err)
		}
		granted, err := progress.GrantAchievement(c.UserContext(), middleware.UserID(c), params.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"id":      params.ID,
			"granted": granted,
		})
	})

	stream := &ProfileStream{Progress: progress, Interval: opts.StreamInterval, Log: log}
	user.Get("/profile/stream", stream.Handle)
}
