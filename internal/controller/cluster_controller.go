package controller

import (
	"peoples-bill-be/internal/pkg/serverutils"
	"peoples-bill-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultRunHistory = 20

type IClusterController interface {
	RegisterRoutes(r fiber.Router, admin fiber.Handler)
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	RunFull(ctx *fiber.Ctx) error
	RunIncremental(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Runs(ctx *fiber.Ctx) error
}

type clusterController struct {
	clusters   service.IClusterService
	clustering service.IClusteringService
}

func NewClusterController(clusters service.IClusterService, clustering service.IClusteringService) IClusterController {
	return &clusterController{clusters: clusters, clustering: clustering}
}

func (c *clusterController) RegisterRoutes(r fiber.Router, admin fiber.Handler) {
	r.Get("/clusters", c.List)
	r.Get("/clusters/:id", c.Get)

	r.Post("/admin/cluster", admin, c.RunFull)
	r.Post("/admin/cluster/incremental", admin, c.RunIncremental)
	r.Post("/admin/cluster/cancel", admin, c.Cancel)
	r.Get("/admin/cluster/runs", admin, c.Runs)
}

func (c *clusterController) List(ctx *fiber.Ctx) error {
	res, err := c.clusters.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clusters retrieved", res))
}

func (c *clusterController) Get(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.clusters.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cluster retrieved", res))
}

// RunFull reports the run record even when the run failed, so the caller
// sees its counts and error text.
func (c *clusterController) RunFull(ctx *fiber.Ctx) error {
	res, err := c.clustering.RunFull(ctx.UserContext())
	if err != nil {
		if res == nil {
			return err
		}
		code := serverutils.StatusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponseWithData(code, "Clustering run did not complete", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Clustering completed", res))
}

func (c *clusterController) RunIncremental(ctx *fiber.Ctx) error {
	res, err := c.clustering.RunIncremental(ctx.UserContext())
	if err != nil {
		if res == nil {
			return err
		}
		code := serverutils.StatusFor(err)
		return ctx.Status(code).JSON(serverutils.ErrorResponseWithData(code, "Incremental clustering did not complete", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Incremental clustering completed", res))
}

func (c *clusterController) Cancel(ctx *fiber.Ctx) error {
	if !c.clustering.CancelRun() {
		return fiber.NewError(fiber.StatusNotFound, "No clustering run in progress")
	}
	return ctx.JSON(serverutils.SuccessResponse("Cancellation requested", nil))
}

func (c *clusterController) Runs(ctx *fiber.Ctx) error {
	res, err := c.clustering.ListRuns(ctx.UserContext(), ctx.QueryInt("limit", defaultRunHistory))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Clustering runs retrieved", res))
}
