package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/service"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// AdvisorHandler exposes classroom advisor lookups.
type AdvisorHandler struct {
	advisors *service.AdvisorService
}

// NewAdvisorHandler constructs AdvisorHandler.
func NewAdvisorHandler(advisors *service.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisors}
}

// List godoc
// @Summary Classroom advisors
// @Description List the advisors of the student's classroom
// @Tags Advisors
// @Produce json
// @Param year query string false "Academic year (display only)"
// @Param semester query int false "Semester number (display only)"
// @Param student_id query int false "Target student (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /advisors [get]
func (h *AdvisorHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	year, semester := termQuery(c)
	advisors, err := h.advisors.GetAdvisors(c.Request.Context(), targetStudentID(c, claims), year, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisors, nil)
}
