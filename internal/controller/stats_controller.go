package controller

import (
	"time"

	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStatsController interface {
	RegisterRoutes(r fiber.Router)
	Platform(ctx *fiber.Ctx) error
}

type statsController struct {
	service service.IStatsService
	maxAge  time.Duration
}

// NewStatsController serves statistics no older than maxAge.
func NewStatsController(service service.IStatsService, maxAge time.Duration) IStatsController {
	return &statsController{service: service, maxAge: maxAge}
}

func (c *statsController) RegisterRoutes(r fiber.Router) {
	r.Get("/stats", c.Platform)
}

func (c *statsController) Platform(ctx *fiber.Ctx) error {
	res, err := c.service.GetPlatformStats(ctx.UserContext(), c.maxAge)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Statistics retrieved", res))
}
