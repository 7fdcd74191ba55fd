package handlers

import (
	"errors"
	"strings"

	"wildlife-progress/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type updateStatsRequest struct {
	ScoreChange          int64 `json:"scoreChange"`
	IncrementGamesPlayed bool  `json:"incrementGamesPlayed"`
}

type renameRequest struct {
	Username string `json:"username" validate:"required,max=128"`
}

// achievementParams only requires an id; unknown ids are the service's call.
type achievementParams struct {
	ID string `validate:"required"`
}

// parseBody decodes an optional JSON body into req and validates it.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON: "+err.Error())
		}
	}
	return validateStruct(req)
}

func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
			}
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(fields, "; "))
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// respondError maps service errors onto HTTP responses. Persistence failures
// are 503 with "saved": false so games can keep showing their result.
func respondError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, services.ErrPersistenceUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "progress could not be saved",
			"cause": err.Error(),
			"saved": false,
		})
	case errors.Is(err, services.ErrUnknownAchievement):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidUsername):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrMalformedProfile):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"cause": err.Error(),
		})
	}
}
