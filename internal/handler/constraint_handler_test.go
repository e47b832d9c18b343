package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

type constraintServiceMock struct {
	teacherRec      *models.TeacherAvailability
	teacherRows     []models.TeacherAvailability
	roomRec         *models.RoomAvailability
	roomRows        []models.RoomAvailability
	requirement     *models.SubjectRequirement
	requirements    []models.SubjectRequirement
	err             error
	capturedTeacher dto.TeacherAvailabilityRequest
	capturedFilter  string
}

func (m *constraintServiceMock) UpsertTeacherAvailability(ctx context.Context, req dto.TeacherAvailabilityRequest) (*models.TeacherAvailability, error) {
	m.capturedTeacher = req
	return m.teacherRec, m.err
}

func (m *constraintServiceMock) ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	m.capturedFilter = teacherID
	return m.teacherRows, m.err
}

func (m *constraintServiceMock) UpsertRoomAvailability(ctx context.Context, req dto.RoomAvailabilityRequest) (*models.RoomAvailability, error) {
	return m.roomRec, m.err
}

func (m *constraintServiceMock) ListRoomAvailability(ctx context.Context, roomID string) ([]models.RoomAvailability, error) {
	m.capturedFilter = roomID
	return m.roomRows, m.err
}

func (m *constraintServiceMock) UpsertSubjectRequirement(ctx context.Context, req dto.SubjectRequirementRequest) (*models.SubjectRequirement, error) {
	return m.requirement, m.err
}

func (m *constraintServiceMock) ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error) {
	return m.requirements, m.err
}

func TestConstraintHandlerUpsertTeacherAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{teacherRec: &models.TeacherAvailability{ID: "ta-1", TeacherID: "teacher-1"}}
	handler := &ConstraintHandler{service: mockSvc}

	payload := []byte(`{"teacherId":"teacher-1","dayOfWeek":"monday","startTime":"8:00","endTime":"12:00","kind":"UNAVAILABLE"}`)
	c, w := newGinContext(http.MethodPut, "/scheduling/constraints/teacher-availability", payload)
	handler.UpsertTeacherAvailability(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "teacher-1", mockSvc.capturedTeacher.TeacherID)
	require.Equal(t, "monday", mockSvc.capturedTeacher.DayOfWeek)
}

func TestConstraintHandlerUpsertTeacherAvailabilityValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ConstraintHandler{service: &constraintServiceMock{}}

	c, w := newGinContext(http.MethodPut, "/scheduling/constraints/teacher-availability", []byte(`{"teacherId":`))
	handler.UpsertTeacherAvailability(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConstraintHandlerUpsertTeacherAvailabilityBadWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")}
	handler := &ConstraintHandler{service: mockSvc}

	payload := []byte(`{"teacherId":"teacher-1","dayOfWeek":"MONDAY","startTime":"12:00","endTime":"08:00","kind":"UNAVAILABLE"}`)
	c, w := newGinContext(http.MethodPut, "/scheduling/constraints/teacher-availability", payload)
	handler.UpsertTeacherAvailability(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConstraintHandlerListTeacherAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{teacherRows: []models.TeacherAvailability{{ID: "ta-1"}}}
	handler := &ConstraintHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/scheduling/constraints/teacher-availability?teacherId=teacher-1", nil)
	handler.ListTeacherAvailability(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "teacher-1", mockSvc.capturedFilter)
}

func TestConstraintHandlerUpsertRoomAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{roomRec: &models.RoomAvailability{ID: "ra-1", RoomID: "room-1"}}
	handler := &ConstraintHandler{service: mockSvc}

	payload := []byte(`{"roomId":"room-1","dayOfWeek":"FRIDAY","startTime":"13:00","endTime":"16:00","kind":"UNAVAILABLE"}`)
	c, w := newGinContext(http.MethodPut, "/scheduling/constraints/room-availability", payload)
	handler.UpsertRoomAvailability(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestConstraintHandlerUpsertSubjectRequirement(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{requirement: &models.SubjectRequirement{SubjectID: "subj-chem", RequiresLab: true}}
	handler := &ConstraintHandler{service: mockSvc}

	payload := []byte(`{"subjectId":"subj-chem","requiresLab":true,"requiresDoublePeriod":true,"maxConsecutivePeriods":2}`)
	c, w := newGinContext(http.MethodPut, "/scheduling/constraints/subject-requirements", payload)
	handler.UpsertSubjectRequirement(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestConstraintHandlerListSubjectRequirements(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintServiceMock{requirements: []models.SubjectRequirement{{SubjectID: "subj-chem"}, {SubjectID: "subj-cs"}}}
	handler := &ConstraintHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/scheduling/constraints/subject-requirements", nil)
	handler.ListSubjectRequirements(c)

	require.Equal(t, http.StatusOK, w.Code)
}
