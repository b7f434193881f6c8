package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/middleware"
	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/service"
	"github.com/prasit-p/school-register-api/pkg/response"
)

type regRepoStub struct {
	byID        map[int64]*models.Registration
	created     *models.Registration
	confirmed   int64
	deleted     []int64
	views       []models.RegistrationView
	listStudent int64
}

func (m *regRepoStub) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	if reg, ok := m.byID[id]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *regRepoStub) FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*models.Registration, error) {
	return nil, sql.ErrNoRows
}

func (m *regRepoStub) FindSubjectHold(ctx context.Context, studentID, subjectID, semesterID, excludeSectionID int64) (*models.SubjectHold, error) {
	return nil, nil
}

func (m *regRepoStub) Create(ctx context.Context, reg *models.Registration) error {
	reg.ID = 100
	m.created = reg
	return nil
}

func (m *regRepoStub) ConfirmCart(ctx context.Context, studentID int64, semesterID int64, confirmedAt time.Time) (int64, error) {
	return m.confirmed, nil
}

func (m *regRepoStub) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *regRepoStub) ListViews(ctx context.Context, studentID int64, semesterID int64, mode models.ListMode) ([]models.RegistrationView, error) {
	m.listStudent = studentID
	return m.views, nil
}

type sectionReaderStub struct {
	sections map[int64]*models.Section
}

func (m *sectionReaderStub) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if sec, ok := m.sections[id]; ok {
		return sec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *sectionReaderStub) ListOpen(ctx context.Context, filter models.SectionFilter) ([]models.SectionSummary, error) {
	return nil, nil
}

func (m *sectionReaderStub) ListSchedules(ctx context.Context, sectionIDs []int64) ([]models.SectionScheduleRow, error) {
	return nil, nil
}

type termResolverStub struct {
	resolution *models.TermResolution
}

func (m *termResolverStub) ResolveCascade(ctx context.Context, year string, semester int, scope service.TermScope) (*models.TermResolution, error) {
	return m.resolution, nil
}

func newRegHandler(repo *regRepoStub, sections *sectionReaderStub) *RegistrationHandler {
	svc := service.NewRegistrationService(repo, sections, &termResolverStub{}, nil, true, validator.New(), zap.NewNop())
	return NewRegistrationHandler(svc, service.NewMetricsService())
}

func studentContext(t *testing.T, method, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 1001, Role: models.RoleStudent})
	return w, c
}

func TestRegistrationHandlerAddToCart(t *testing.T) {
	repo := &regRepoStub{}
	sections := &sectionReaderStub{sections: map[int64]*models.Section{
		42: {ID: 42, SubjectID: 7, SemesterID: 3, Status: models.SectionStatusOpen},
	}}
	handler := newRegHandler(repo, sections)

	payload, _ := json.Marshal(service.AddToCartRequest{SectionID: 42})
	w, c := studentContext(t, http.MethodPost, "/registrations/cart", payload)

	handler.AddToCart(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, int64(1001), repo.created.StudentID)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestRegistrationHandlerAddToCartSectionMissing(t *testing.T) {
	handler := newRegHandler(&regRepoStub{}, &sectionReaderStub{})

	payload, _ := json.Marshal(service.AddToCartRequest{SectionID: 42})
	w, c := studentContext(t, http.MethodPost, "/registrations/cart", payload)

	handler.AddToCart(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SECTION_NOT_FOUND", envelope.Error.Code)
}

func TestRegistrationHandlerAddToCartInvalidBody(t *testing.T) {
	handler := newRegHandler(&regRepoStub{}, &sectionReaderStub{})

	w, c := studentContext(t, http.MethodPost, "/registrations/cart", []byte(`{"section_id":`))
	handler.AddToCart(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerConfirm(t *testing.T) {
	handler := newRegHandler(&regRepoStub{confirmed: 2}, &sectionReaderStub{})

	w, c := studentContext(t, http.MethodPost, "/registrations/confirm", nil)
	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.ConfirmCartResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(2), envelope.Data.UpdatedCount)
}

func TestRegistrationHandlerRemoveForbidden(t *testing.T) {
	repo := &regRepoStub{byID: map[int64]*models.Registration{
		9: {ID: 9, StudentID: 2002, SectionID: 42, Status: models.RegistrationStatusCart},
	}}
	handler := newRegHandler(repo, &sectionReaderStub{})

	w, c := studentContext(t, http.MethodDelete, "/registrations/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.Remove(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, repo.deleted)
}

func TestRegistrationHandlerRemoveOwn(t *testing.T) {
	repo := &regRepoStub{byID: map[int64]*models.Registration{
		9: {ID: 9, StudentID: 1001, SectionID: 42, Status: models.RegistrationStatusCart},
	}}
	handler := newRegHandler(repo, &sectionReaderStub{})

	w, c := studentContext(t, http.MethodDelete, "/registrations/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.Remove(c)
	// gin defers status-only writes until the response is flushed
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, repo.deleted, int64(9))
}

func TestRegistrationHandlerListWithTermMeta(t *testing.T) {
	repo := &regRepoStub{views: []models.RegistrationView{
		{ID: 1, SectionID: 42, SubjectCode: "MA101", Status: models.RegistrationStatusEnrolled},
	}}
	sections := &sectionReaderStub{}
	terms := &termResolverStub{resolution: &models.TermResolution{SemesterID: 3, Year: "2567", Semester: 1, Step: models.StepBuddhistShift}}
	svc := service.NewRegistrationService(repo, sections, terms, nil, true, validator.New(), zap.NewNop())
	handler := NewRegistrationHandler(svc, service.NewMetricsService())

	w, c := studentContext(t, http.MethodGet, "/registrations?year=2024&semester=1", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, "buddhist_shift", envelope.Meta["term_fallback"])
	assert.Equal(t, "2567", envelope.Meta["resolved_year"])
}

func TestRegistrationHandlerListStaffOnBehalf(t *testing.T) {
	repo := &regRepoStub{}
	handler := newRegHandler(repo, &sectionReaderStub{})

	w, c := studentContext(t, http.MethodGet, "/registrations?student_id=1001", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 5, Role: models.RoleTeacher})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), repo.listStudent)
}

func TestRegistrationHandlerListStudentIgnoresTargetOverride(t *testing.T) {
	repo := &regRepoStub{}
	handler := newRegHandler(repo, &sectionReaderStub{})

	// a student cannot redirect the listing to another student's rows
	w, c := studentContext(t, http.MethodGet, "/registrations?student_id=2002", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), repo.listStudent)
}
