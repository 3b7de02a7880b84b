package controller

import (
	"clinic-assistant-be/internal/dto"
	"clinic-assistant-be/internal/pkg/serverutils"
	"clinic-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Turn(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Budget(ctx *fiber.Ctx) error
}

type chatController struct {
	turnService service.ITurnService
}

func NewChatController(turnService service.ITurnService) IChatController {
	return &chatController{
		turnService: turnService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("turn", c.Turn)
	h.Post("reset", c.Reset)
	h.Get("budget", c.Budget)
}

func (c *chatController) organizationId(ctx *fiber.Ctx) (uuid.UUID, error) {
	orgStr, _ := ctx.Locals("organization_id").(string)
	orgId, err := uuid.Parse(orgStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid organization")
	}
	return orgId, nil
}

func (c *chatController) Turn(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	var req dto.TurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.turnService.HandleTurn(ctx.Context(), orgId, &req)
	if err != nil {
		return err
	}

	// Diagnostics stay server side for customer channels.
	if role, _ := ctx.Locals("role").(string); role != "staff" {
		res.Diagnostics = nil
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process turn", res))
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	var req dto.ResetSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.turnService.ResetSession(ctx.Context(), orgId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset session", nil))
}

func (c *chatController) Budget(ctx *fiber.Ctx) error {
	orgId, err := c.organizationId(ctx)
	if err != nil {
		return err
	}

	res, err := c.turnService.BudgetSnapshot(ctx.Context(), orgId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get budget snapshot", res))
}
