package controller

import (
	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// VoterTokenHeader carries the opaque per-voter token used to reject repeat
// votes. Without it every vote is counted.
const VoterTokenHeader = "X-Voter-Token"

type IVoteController interface {
	RegisterRoutes(r fiber.Router, limit fiber.Handler)
	Cast(ctx *fiber.Ctx) error
}

type voteController struct {
	service service.IVoteService
}

func NewVoteController(service service.IVoteService) IVoteController {
	return &voteController{service: service}
}

func (c *voteController) RegisterRoutes(r fiber.Router, limit fiber.Handler) {
	r.Post("/vote", limit, c.Cast)
}

func (c *voteController) Cast(ctx *fiber.Ctx) error {
	var req dto.CastVoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}
	req.VoterToken = ctx.Get(VoterTokenHeader)

	res, err := c.service.Cast(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Vote recorded", res))
}
