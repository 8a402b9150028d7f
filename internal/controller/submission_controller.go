package controller

import (
	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubmissionController interface {
	RegisterRoutes(r fiber.Router, admin, limit fiber.Handler)
	Submit(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Moderate(ctx *fiber.Ctx) error
}

type submissionController struct {
	service service.ISubmissionService
}

func NewSubmissionController(service service.ISubmissionService) ISubmissionController {
	return &submissionController{service: service}
}

func (c *submissionController) RegisterRoutes(r fiber.Router, admin, limit fiber.Handler) {
	r.Post("/submissions", limit, c.Submit)
	r.Get("/submissions", c.List)
	r.Put("/admin/submissions/:id/status", admin, c.Moderate)
}

func (c *submissionController) Submit(ctx *fiber.Ctx) error {
	var req dto.CreateSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.Response{
		Success: true,
		Code:    fiber.StatusCreated,
		Message: "Submission received",
		Data:    res,
	})
}

func (c *submissionController) List(ctx *fiber.Ctx) error {
	var req dto.ListSubmissionsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Submissions retrieved", res))
}

func (c *submissionController) Moderate(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.ModerateSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Moderate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Submission updated", res))
}
