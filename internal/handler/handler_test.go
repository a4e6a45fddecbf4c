package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	internalmiddleware "github.com/noah-isme/eduscheduler-api/internal/middleware"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/service"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
	"github.com/noah-isme/eduscheduler-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type facultyServiceStub struct {
	filter  models.FacultyFilter
	created dto.FacultyRequest
	getErr  error
}

func (s *facultyServiceStub) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	s.filter = filter
	return []models.Faculty{{ID: "fac-1", Name: "Dr. Rao"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (s *facultyServiceStub) Get(ctx context.Context, id string) (*models.Faculty, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Faculty{ID: id}, nil
}

func (s *facultyServiceStub) Create(ctx context.Context, req dto.FacultyRequest) (*models.Faculty, error) {
	s.created = req
	return &models.Faculty{ID: "fac-2", Name: req.Name}, nil
}

func (s *facultyServiceStub) Update(ctx context.Context, id string, req dto.FacultyRequest) (*models.Faculty, error) {
	return &models.Faculty{ID: id, Name: req.Name}, nil
}

func (s *facultyServiceStub) Delete(ctx context.Context, id string) error { return nil }

func facultyRouter(stub *facultyServiceStub) *gin.Engine {
	h := NewFacultyHandler(stub)
	r := gin.New()
	r.GET("/faculty", h.List)
	r.GET("/faculty/:id", h.Get)
	r.POST("/faculty", h.Create)
	r.DELETE("/faculty/:id", h.Delete)
	return r
}

func TestFacultyHandlerListBindsQuery(t *testing.T) {
	stub := &facultyServiceStub{}
	w := perform(facultyRouter(stub), http.MethodGet, "/faculty?department=CSE&q=%20rao%20&page=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CSE", stub.filter.Department)
	assert.Equal(t, "rao", stub.filter.Search)
	assert.Equal(t, 2, stub.filter.Page)
	assert.Equal(t, defaultPageSize, stub.filter.PageSize)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
}

func TestFacultyHandlerListRejectsBadPage(t *testing.T) {
	w := perform(facultyRouter(&facultyServiceStub{}), http.MethodGet, "/faculty?page=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFacultyHandlerCreate(t *testing.T) {
	stub := &facultyServiceStub{}
	w := perform(facultyRouter(stub), http.MethodPost, "/faculty", []byte(`{"name":"Dr. Rao","maxSessionsPerWeek":12}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dr. Rao", stub.created.Name)
	assert.Equal(t, 12, stub.created.MaxSessionsPerWeek)
}

func TestFacultyHandlerCreateMalformedJSON(t *testing.T) {
	w := perform(facultyRouter(&facultyServiceStub{}), http.MethodPost, "/faculty", []byte(`{"name":`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestFacultyHandlerGetNotFound(t *testing.T) {
	stub := &facultyServiceStub{getErr: appErrors.Clone(appErrors.ErrNotFound, "faculty not found")}
	w := perform(facultyRouter(stub), http.MethodGet, "/faculty/missing", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "faculty not found", env.Error.Message)
}

func TestFacultyHandlerDelete(t *testing.T) {
	w := perform(facultyRouter(&facultyServiceStub{}), http.MethodDelete, "/faculty/fac-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

type subjectServiceStub struct {
	filter    models.SubjectFilter
	imported  []dto.SubjectRequest
	deleteErr error
}

func (s *subjectServiceStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	s.filter = filter
	return nil, &models.Pagination{}, nil
}

func (s *subjectServiceStub) Get(ctx context.Context, id string) (*models.Subject, error) {
	return &models.Subject{ID: id}, nil
}

func (s *subjectServiceStub) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	return &models.Subject{ID: "sub-1", Code: req.Code}, nil
}

func (s *subjectServiceStub) Update(ctx context.Context, id string, req dto.SubjectRequest) (*models.Subject, error) {
	return &models.Subject{ID: id, Code: req.Code}, nil
}

func (s *subjectServiceStub) Import(ctx context.Context, reqs []dto.SubjectRequest) ([]models.Subject, error) {
	s.imported = reqs
	out := make([]models.Subject, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, models.Subject{Code: req.Code, Name: req.Name})
	}
	return out, nil
}

func (s *subjectServiceStub) Delete(ctx context.Context, id string) error { return s.deleteErr }

func subjectRouter(stub *subjectServiceStub) *gin.Engine {
	h := NewSubjectHandler(stub)
	r := gin.New()
	r.GET("/subjects", h.List)
	r.POST("/subjects/import", h.Import)
	r.DELETE("/subjects/:id", h.Delete)
	return r
}

func TestSubjectHandlerListNormalisesKind(t *testing.T) {
	stub := &subjectServiceStub{}
	w := perform(subjectRouter(stub), http.MethodGet, "/subjects?kind=LAB&semester=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SubjectKind("lab"), stub.filter.Kind)
	assert.Equal(t, "5", stub.filter.Semester)
}

func TestSubjectHandlerImport(t *testing.T) {
	stub := &subjectServiceStub{}
	body := []byte(`[{"code":"cs301","name":"Compilers"},{"code":"cs302","name":"Networks"}]`)
	w := perform(subjectRouter(stub), http.MethodPost, "/subjects/import", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, stub.imported, 2)
	assert.Equal(t, "cs302", stub.imported[1].Code)
}

func TestSubjectHandlerDeleteInUse(t *testing.T) {
	stub := &subjectServiceStub{deleteErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is used by batches")}
	w := perform(subjectRouter(stub), http.MethodDelete, "/subjects/sub-1", nil)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

type rulesServiceStub struct {
	patch dto.UpdateRulesRequest
}

func (s *rulesServiceStub) Get(ctx context.Context) (*models.Rules, error) {
	rules := models.DefaultRules()
	return &rules, nil
}

func (s *rulesServiceStub) Update(ctx context.Context, req dto.UpdateRulesRequest) (*models.Rules, error) {
	s.patch = req
	rules := models.DefaultRules()
	return &rules, nil
}

func TestRulesHandlerUpdateKeepsOmittedFieldsNil(t *testing.T) {
	stub := &rulesServiceStub{}
	h := NewRulesHandler(stub)
	r := gin.New()
	r.PUT("/rules", h.Update)

	w := perform(r, http.MethodPut, "/rules", []byte(`{"maxSessionsPerDay":5}`))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.patch.MaxSessionsPerDay)
	assert.Equal(t, 5, *stub.patch.MaxSessionsPerDay)
	assert.Nil(t, stub.patch.SpecialSlots)
	assert.Nil(t, stub.patch.ConsiderFacultyLeaves)
}

type timetableServiceStub struct {
	req    dto.GenerateTimetableRequest
	called bool
	err    error
}

func (s *timetableServiceStub) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, error) {
	s.called = true
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Timetable{ID: "tt-1", PeriodsPerDay: 5}, nil
}

func (s *timetableServiceStub) Lookup(ctx context.Context, id string) (*models.Timetable, bool, error) {
	return &models.Timetable{ID: id}, true, nil
}

func (s *timetableServiceStub) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableSummary, *models.Pagination, error) {
	return []models.TimetableSummary{{ID: "tt-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (s *timetableServiceStub) Delete(ctx context.Context, id string) error { return nil }

func TestTimetableHandlerGenerateWithEmptyBody(t *testing.T) {
	stub := &timetableServiceStub{}
	h := NewTimetableHandler(stub)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", nil)

	h.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, stub.called)
	assert.Empty(t, stub.req.Days)
}

func TestTimetableHandlerGenerateBindsOptions(t *testing.T) {
	stub := &timetableServiceStub{}
	h := NewTimetableHandler(stub)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"days":["Mon","Tue"],"periodsPerDay":5,"seed":42}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"Mon", "Tue"}, stub.req.Days)
	require.NotNil(t, stub.req.Seed)
	assert.Equal(t, int64(42), *stub.req.Seed)
}

func TestTimetableHandlerGenerateFailure(t *testing.T) {
	stub := &timetableServiceStub{err: appErrors.Clone(appErrors.ErrGenerationFailed, "no batches to schedule")}
	h := NewTimetableHandler(stub)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Generate(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTimetableHandlerList(t *testing.T) {
	h := NewTimetableHandler(&timetableServiceStub{})
	r := gin.New()
	r.GET("/timetables", h.List)

	w := perform(r, http.MethodGet, "/timetables?page=1&page_size=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestTimetableHandlerGetReportsCacheHit(t *testing.T) {
	h := NewTimetableHandler(&timetableServiceStub{})
	r := gin.New()
	r.Use(internalmiddleware.WithResponseMeta())
	r.GET("/timetables/:id", h.Get)

	w := perform(r, http.MethodGet, "/timetables/tt-9", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

type exportServiceStub struct {
	format      string
	downloadErr error
}

func (s *exportServiceStub) Render(ctx context.Context, timetableID string, format string) (*service.ExportFile, error) {
	s.format = format
	return &service.ExportFile{Filename: "timetable.csv", ContentType: "text/csv", Payload: []byte("Batch,Day\n")}, nil
}

func (s *exportServiceStub) Enqueue(ctx context.Context, timetableID string, format string) (*models.ExportJob, error) {
	s.format = format
	return &models.ExportJob{ID: "job-1", TimetableID: timetableID, Status: models.ExportStatusQueued}, nil
}

func (s *exportServiceStub) Job(ctx context.Context, id string) (*models.ExportJob, error) {
	return &models.ExportJob{ID: id, Status: models.ExportStatusFinished}, nil
}

func (s *exportServiceStub) Download(ctx context.Context, token string) (*service.ExportFile, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return &service.ExportFile{Filename: "timetable.pdf", ContentType: "application/pdf", Payload: []byte("%PDF")}, nil
}

func exportRouter(stub *exportServiceStub) *gin.Engine {
	h := NewExportHandler(stub)
	r := gin.New()
	r.GET("/timetables/:id/export", h.Export)
	r.POST("/timetables/:id/exports", h.Enqueue)
	r.GET("/exports/download/:token", h.Download)
	r.GET("/exports/:jobId", h.Status)
	return r
}

func TestExportHandlerDefaultsToCSV(t *testing.T) {
	stub := &exportServiceStub{}
	w := perform(exportRouter(stub), http.MethodGet, "/timetables/tt-1/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", stub.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Equal(t, "Batch,Day\n", w.Body.String())
}

func TestExportHandlerEnqueue(t *testing.T) {
	stub := &exportServiceStub{}
	w := perform(exportRouter(stub), http.MethodPost, "/timetables/tt-1/exports", []byte(`{"format":"pdf"}`))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "pdf", stub.format)
}

func TestExportHandlerStatus(t *testing.T) {
	w := perform(exportRouter(&exportServiceStub{}), http.MethodGet, "/exports/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportHandlerDownloadInvalidToken(t *testing.T) {
	stub := &exportServiceStub{downloadErr: appErrors.Clone(appErrors.ErrTokenInvalid, "")}
	w := perform(exportRouter(stub), http.MethodGet, "/exports/download/bogus", nil)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
	})
	r := gin.New()
	r.GET("/ready", healthy.Ready)
	w := perform(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)

	degraded := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	r = gin.New()
	r.GET("/ready", degraded.Ready)
	w = perform(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "connection refused", body.Checks["redis"])
	assert.Equal(t, "ok", body.Checks["database"])
}

func TestMetricsHandlerPrometheusWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	r := gin.New()
	r.GET("/metrics", h.Prometheus)
	w := perform(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
