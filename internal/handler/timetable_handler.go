package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/service"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// TimetableHandler renders the weekly grid of enrolled sections.
type TimetableHandler struct {
	timetables *service.TimetableService
}

// NewTimetableHandler constructs TimetableHandler.
func NewTimetableHandler(timetables *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables}
}

// Get godoc
// @Summary Weekly timetable
// @Description Project the student's enrolled sections onto the fixed weekly grid
// @Tags Timetable
// @Produce json
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Param student_id query int false "Target student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	year, semester := termQuery(c)
	grid, err := h.timetables.Build(c.Request.Context(), targetStudentID(c, claims), year, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid.Days, nil, response.TermMeta(grid.Term))
}

// GetForStudent godoc
// @Summary Weekly timetable for a specific student
// @Description Same grid keyed by path; students may fetch their own, staff anyone's
// @Tags Timetable
// @Produce json
// @Param studentId path int true "Student ID"
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/timetable [get]
func (h *TimetableHandler) GetForStudent(c *gin.Context) {
	studentID, err := strconv.ParseInt(c.Param("studentId"), 10, 64)
	if err != nil || studentID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}

	year, semester := termQuery(c)
	grid, err := h.timetables.Build(c.Request.Context(), studentID, year, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid.Days, nil, response.TermMeta(grid.Term))
}
