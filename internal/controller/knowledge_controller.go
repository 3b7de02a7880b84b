package controller

import (
	"clinic-assistant-be/internal/dto"
	"clinic-assistant-be/internal/pkg/serverutils"
	"clinic-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Upsert(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(staffOnly)
	h.Post("services", c.Upsert)
	h.Get("services", c.List)
	h.Delete("services/:id", c.Delete)
}

func staffOnly(ctx *fiber.Ctx) error {
	if role, _ := ctx.Locals("role").(string); role != "staff" {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse("staff only"))
	}
	return ctx.Next()
}

func (c *knowledgeController) organizationId(ctx *fiber.Ctx) (uuid.UUID, error) {
	orgStr, _ := ctx.Locals("organization_id").(string)
	orgId, err := uuid.Parse(orgStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid organization")
	}
	return orgId, nil
}

func (c *knowledgeController) Upsert(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpsertServiceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.UpsertService(ctx.Context(), orgId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upsert service", res))
}

func (c *knowledgeController) List(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	res, err := c.knowledgeService.ListServices(ctx.Context(), orgId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list services", res))
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid service id")
	}

	if err := c.knowledgeService.DeleteService(ctx.Context(), orgId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete service", nil))
}
