package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-portal/internal/api/dto"
	"github.com/spec-kit/request-portal/internal/auth"
	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/service"
	apperrors "github.com/spec-kit/request-portal/pkg/util"
)

// RequestsHandler manages the request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	requests, err := h.service.List(c.Context(), identity)
	if err != nil {
		return err
	}
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return c.JSON(items)
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	var req dto.CreateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.service.Create(c.Context(), identity, service.RequestCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(requestResponse(created))
}

// Update PATCH /api/requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	var req dto.UpdateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.service.Update(c.Context(), identity, c.Params("id"), service.RequestUpdateInput{
		Status:      req.Status,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(requestResponse(updated))
}

// Delete DELETE /api/requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	deleted, err := h.service.Delete(c.Context(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteRequestResponse{
		Message:        "Request deleted",
		DeletedRequest: requestResponse(deleted),
	})
}

func requestResponse(req *domain.Request) dto.RequestResponse {
	return dto.RequestResponse{
		ID:           req.ID,
		UserID:       req.OwnerID,
		CreatorEmail: req.CreatorEmail,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       req.Status,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
}
