package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/service"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// TermHandler exposes academic term lookups.
type TermHandler struct {
	terms *service.TermService
}

// NewTermHandler constructs TermHandler.
func NewTermHandler(terms *service.TermService) *TermHandler {
	return &TermHandler{terms: terms}
}

// List godoc
// @Summary List academic terms
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	terms, err := h.terms.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// Active godoc
// @Summary Active academic term
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/active [get]
func (h *TermHandler) Active(c *gin.Context) {
	term, err := h.terms.ResolveActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Resolve godoc
// @Summary Resolve a term reference
// @Description Resolve year/semester to a stored term, retrying the Buddhist-era spelling and falling back to the latest term with data
// @Tags Terms
// @Produce json
// @Param year query string true "Academic year, CE or BE"
// @Param semester query int true "Semester number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/resolve [get]
func (h *TermHandler) Resolve(c *gin.Context) {
	year, semester := termQuery(c)
	if year == "" || semester == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and semester are required"))
		return
	}

	var studentID int64
	if raw := c.Query("student_id"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			studentID = parsed
		}
	}

	resolved, err := h.terms.ResolveCascade(c.Request.Context(), year, semester, service.TermScope{StudentID: studentID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil, response.TermMeta(resolved))
}
