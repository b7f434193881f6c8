package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/service"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// RegistrationHandler exposes the cart and enrollment endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	metrics       *service.MetricsService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, metrics: metrics}
}

// AddToCart godoc
// @Summary Add a section to the cart
// @Description Place a provisional registration for an open section
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.AddToCartRequest true "Cart payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/cart [post]
func (h *RegistrationHandler) AddToCart(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	registration, err := h.registrations.AddToCart(c.Request.Context(), targetStudentID(c, claims), req)
	h.metrics.RecordRegistrationAction("cart_add", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Confirm godoc
// @Summary Confirm cart
// @Description Promote all cart rows to enrolled in one step
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.ConfirmCartRequest false "Optional semester scope"
// @Success 200 {object} response.Envelope
// @Router /registrations/confirm [post]
func (h *RegistrationHandler) Confirm(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ConfirmCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	result, err := h.registrations.ConfirmCart(c.Request.Context(), targetStudentID(c, claims), req)
	h.metrics.RecordRegistrationAction("confirm", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Remove godoc
// @Summary Remove a registration
// @Description Delete a cart or enrolled row; students may only remove their own
// @Tags Registrations
// @Produce json
// @Param id path int true "Registration ID"
// @Success 204 "No Content"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	registrationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || registrationID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration id"))
		return
	}

	actingStudentID := claims.UserID
	if claims.Role != models.RoleStudent {
		// staff can remove on behalf of any student
		actingStudentID = 0
	}

	err = h.registrations.Remove(c.Request.Context(), registrationID, actingStudentID)
	h.metrics.RecordRegistrationAction("remove", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List registrations
// @Description List the student's cart or enrolled sections for a term
// @Tags Registrations
// @Produce json
// @Param mode query string false "cart or registered" default(registered)
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Param student_id query int false "Target student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	mode := models.ListModeRegistered
	if c.Query("mode") == string(models.ListModeCart) {
		mode = models.ListModeCart
	}
	year, semester := termQuery(c)

	result, err := h.registrations.List(c.Request.Context(), targetStudentID(c, claims), year, semester, mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Registrations, nil, response.TermMeta(result.Term))
}
