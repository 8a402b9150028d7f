package controller

import (
	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBillController interface {
	RegisterRoutes(r fiber.Router, admin fiber.Handler)
	ListClauses(ctx *fiber.Ctx) error
	GetClause(ctx *fiber.Ctx) error
	FullBill(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Withdraw(ctx *fiber.Ctx) error
}

type billController struct {
	service service.IClauseService
}

func NewBillController(service service.IClauseService) IBillController {
	return &billController{service: service}
}

func (c *billController) RegisterRoutes(r fiber.Router, admin fiber.Handler) {
	bill := r.Group("/bill")
	bill.Get("/clauses", c.ListClauses)
	bill.Get("/clauses/:id", c.GetClause)
	bill.Get("/full", c.FullBill)

	r.Post("/admin/clauses/generate/:clusterId", admin, c.Generate)
	r.Post("/admin/clauses/:id/regenerate", admin, c.Regenerate)
	r.Post("/admin/clauses/:id/withdraw", admin, c.Withdraw)
}

// ListClauses returns the bill in section order. Withdrawn clauses are
// included only with ?include_withdrawn=true.
func (c *billController) ListClauses(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), ctx.QueryBool("include_withdrawn", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clauses retrieved", res))
}

func (c *billController) GetClause(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clause retrieved", res))
}

func (c *billController) FullBill(ctx *fiber.Ctx) error {
	res, err := c.service.FullBill(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Bill retrieved", res))
}

func (c *billController) Generate(ctx *fiber.Ctx) error {
	clusterID, err := uuidParam(ctx, "clusterId")
	if err != nil {
		return err
	}
	res, err := c.service.Generate(ctx.UserContext(), clusterID)
	if err != nil {
		return err
	}
	if res.Created {
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.Response{
			Success: true,
			Code:    fiber.StatusCreated,
			Message: "Clause drafted",
			Data:    res,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Clause already exists", res))
}

func (c *billController) Regenerate(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Regenerate(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clause regenerated", res))
}

func (c *billController) Withdraw(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Withdraw(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clause withdrawn", res))
}
