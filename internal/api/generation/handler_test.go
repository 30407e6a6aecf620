package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/lessonplan-backend/internal/api/middleware"
	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/validator"
)

type fakeUsecase struct {
	single  []entity.GenerateRequest
	batches []entity.BatchRequest
	lists   []entity.ListGenerationsRequest

	result  *entity.GenerationResult
	outcome *entity.BatchOutcome
	err     error
}

func (f *fakeUsecase) GenerateLesson(_ context.Context, req entity.GenerateRequest) (*entity.GenerationResult, error) {
	f.single = append(f.single, req)
	return f.result, f.err
}

func (f *fakeUsecase) BatchGenerate(_ context.Context, req entity.BatchRequest) (*entity.BatchOutcome, error) {
	f.batches = append(f.batches, req)
	return f.outcome, f.err
}

func (f *fakeUsecase) ListGenerations(_ context.Context, req *entity.ListGenerationsRequest) ([]*entity.GenerationRecord, error) {
	f.lists = append(f.lists, *req)
	return []*entity.GenerationRecord{{ID: "g1", Topic: "焊接", Status: entity.GenerationStatusSuccess}}, f.err
}

type fakeReferences map[string][]entity.ReferenceDocument

func (f fakeReferences) References(_ context.Context, lessonID string) []entity.ReferenceDocument {
	return f[lessonID]
}

var defaults = entity.CourseInfo{Department: "智能装备学院", Course: "电子焊接", Teacher: "张老师"}

func newHandler(uc *fakeUsecase, refs fakeReferences) *Handler {
	return NewHandler(uc, refs, validator.NewValidator(config.FileUploadConfig{}), defaults)
}

func post(t *testing.T, handler http.HandlerFunc, body string, sessionID string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestGenerateLessonMergesCourseInfo(t *testing.T) {
	uc := &fakeUsecase{result: &entity.GenerationResult{
		Topic:    "焊接基础",
		Status:   entity.GenerationStatusSuccess,
		FileName: "03_焊接基础.docx",
		FileURL:  "/download/03_焊接基础.docx",
	}}
	refs := fakeReferences{"1718": {{Filename: "讲义.docx", Content: "焊接五步法"}}}
	h := newHandler(uc, refs)

	rec := post(t, h.GenerateLesson, `{
		"fixed_course_info": {"授课教师": "李老师"},
		"variable_course_info": {"id": 1718, "课题名称": "焊接基础"},
		"lesson_index": 3,
		"api_key": "sk-test"
	}`, "tab-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(middleware.SessionHeader); got != "tab-1" {
		t.Fatalf("session header = %q", got)
	}

	resp := decode[entity.GenerateLessonResponse](t, rec)
	if !resp.Success || resp.Result == nil || resp.Result.FileName != "03_焊接基础.docx" {
		t.Fatalf("response = %+v", resp)
	}

	if len(uc.single) != 1 {
		t.Fatalf("calls = %d", len(uc.single))
	}
	got := uc.single[0]
	if got.SessionID != "tab-1" || got.Index != 3 || got.APIKey != "sk-test" {
		t.Fatalf("request = %+v", got)
	}
	if got.Info.Teacher != "李老师" || got.Info.Department != "智能装备学院" || got.Info.Topic != "焊接基础" {
		t.Fatalf("merged info = %+v", got.Info)
	}
	if len(got.Info.References) != 1 || got.Info.References[0].Content != "焊接五步法" {
		t.Fatalf("references = %+v", got.Info.References)
	}
}

func TestGenerateLessonDefaultsIndexAndSession(t *testing.T) {
	uc := &fakeUsecase{result: &entity.GenerationResult{Status: entity.GenerationStatusSuccess}}
	refs := fakeReferences{"1": {{Filename: "a.txt", Content: "x"}}}
	h := newHandler(uc, refs)

	rec := post(t, h.GenerateLesson, `{"variable_course_info": {}, "use_mock": true}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	got := uc.single[0]
	if got.Index != 1 || !got.UseMock {
		t.Fatalf("request = %+v", got)
	}
	if got.SessionID == "" || rec.Header().Get(middleware.SessionHeader) != got.SessionID {
		t.Fatalf("session id %q not echoed", got.SessionID)
	}
	if len(got.Info.References) != 1 {
		t.Fatalf("references by lesson index = %+v", got.Info.References)
	}
}

func TestGenerateLessonFailedResult(t *testing.T) {
	uc := &fakeUsecase{result: &entity.GenerationResult{
		Topic:   "焊接",
		Status:  entity.GenerationStatusFailure,
		Message: "文件未生成",
	}}
	h := newHandler(uc, nil)

	rec := post(t, h.GenerateLesson, `{"variable_course_info": {"课题名称": "焊接"}}`, "s")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[entity.GenerateLessonResponse](t, rec)
	if resp.Success || resp.Message != "文件未生成" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestGenerateLessonErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, ""},
		{"missing lesson", `{}`, nil, http.StatusBadRequest, ""},
		{"bad format", `{"variable_course_info": {}, "export_formats": ["docx"]}`, nil, http.StatusBadRequest, ""},
		{"missing key", `{"variable_course_info": {}}`, entity.ErrMissingAPIKey, http.StatusBadRequest, entity.ErrorTypeMissingAPIKey},
		{"invalid key", `{"variable_course_info": {}}`, entity.ErrInvalidAPIKey, http.StatusUnauthorized, entity.ErrorTypeInvalidAPIKey},
		{"unexpected", `{"variable_course_info": {}}`, context.DeadlineExceeded, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUsecase{err: tt.err}
			h := newHandler(uc, nil)

			rec := post(t, h.GenerateLesson, tt.body, "s")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body)
			}
			resp := decode[entity.ErrorResponse](t, rec)
			if resp.Success || resp.ErrorType != tt.wantType || resp.Message == "" {
				t.Fatalf("response = %+v", resp)
			}
		})
	}
}

func TestBatchGenerate(t *testing.T) {
	uc := &fakeUsecase{outcome: &entity.BatchOutcome{
		Results: []entity.GenerationResult{
			{Topic: "一", Status: entity.GenerationStatusSuccess},
			{Topic: "二", Status: entity.GenerationStatusFailure},
		},
	}}
	refs := fakeReferences{
		"a": {{Filename: "a.txt", Content: "甲"}},
		"2": {{Filename: "b.txt", Content: "乙"}},
	}
	h := newHandler(uc, refs)

	rec := post(t, h.BatchGenerate, `{
		"fixed_course_info": {"专业名称": "机电"},
		"variable_course_infos": [{"id": "a", "课题名称": "一"}, {"课题名称": "二"}],
		"api_key": "sk"
	}`, "s")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[entity.BatchGenerateResponse](t, rec)
	if resp.Success || len(resp.Results) != 2 {
		t.Fatalf("response = %+v", resp)
	}

	got := uc.batches[0]
	if got.Fixed.Major != "机电" || got.Fixed.Teacher != "张老师" {
		t.Fatalf("fixed = %+v", got.Fixed)
	}
	if len(got.Lessons) != 2 {
		t.Fatalf("lessons = %+v", got.Lessons)
	}
	if got.Lessons[0].References[0].Content != "甲" || got.Lessons[1].References[0].Content != "乙" {
		t.Fatalf("references = %+v / %+v", got.Lessons[0].References, got.Lessons[1].References)
	}
}

func TestBatchGenerateRequiresLessons(t *testing.T) {
	uc := &fakeUsecase{}
	h := newHandler(uc, nil)

	rec := post(t, h.BatchGenerate, `{"variable_course_infos": []}`, "s")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(uc.batches) != 0 {
		t.Fatal("usecase called for an empty batch")
	}
}

func TestListGenerations(t *testing.T) {
	uc := &fakeUsecase{}
	h := newHandler(uc, nil)

	rec := httptest.NewRecorder()
	h.ListGenerations(rec, httptest.NewRequest(http.MethodGet, "/api/generations?skip=5&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if uc.lists[0].Skip != 5 || uc.lists[0].Limit != 10 {
		t.Fatalf("request = %+v", uc.lists[0])
	}
	resp := decode[entity.ListGenerationsResponse](t, rec)
	if !resp.Success || len(resp.Generations) != 1 {
		t.Fatalf("response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.ListGenerations(rec, httptest.NewRequest(http.MethodGet, "/api/generations?limit=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for bad limit = %d", rec.Code)
	}
}
