package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/integration/llm"
	"github.com/futig/lessonplan-backend/internal/pkg/docx"
	"github.com/futig/lessonplan-backend/internal/pkg/formatter"
	"github.com/futig/lessonplan-backend/internal/repository"
	"go.uber.org/zap"
)

// fakeDoc records what the usecase writes into the template.
type fakeDoc struct {
	info     entity.CourseInfo
	modules  []docx.Field
	texts    map[docx.Field]string
	steps    []entity.ProcessStep
	homework string
	saved    string
	closed   bool

	failFill bool
}

func (d *fakeDoc) FillContentInfo(info entity.CourseInfo) error {
	d.info = info
	return nil
}

func (d *fakeDoc) FillModule(field docx.Field, text string) error {
	if d.failFill {
		return fmt.Errorf("%w: cell out of range", entity.ErrDocumentFill)
	}
	d.modules = append(d.modules, field)
	d.texts[field] = text
	return nil
}

func (d *fakeDoc) FillProcessTable(steps []entity.ProcessStep, homework string) error {
	d.steps = steps
	d.homework = homework
	return nil
}

func (d *fakeDoc) Save(path string) error {
	d.saved = path
	return os.WriteFile(path, []byte("docx"), 0o644)
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeTemplate struct {
	mu      sync.Mutex
	docs    []*fakeDoc
	openErr error
	// failOn makes the n-th opened document (1-based) fail to fill.
	failOn int
}

func (f *fakeTemplate) open() (LessonPlanDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openErr != nil {
		return nil, f.openErr
	}
	doc := &fakeDoc{texts: make(map[docx.Field]string)}
	f.docs = append(f.docs, doc)
	doc.failFill = len(f.docs) == f.failOn
	return doc, nil
}

// fakeLLM answers with plan, or with errs in order while they last.
type fakeLLM struct {
	mu    sync.Mutex
	plan  *entity.LessonPlan
	errs  []error
	calls []entity.CourseInfo
	keys  []string
}

func (f *fakeLLM) GenerateLessonPlan(_ context.Context, apiKey string, info *entity.CourseInfo) (
	*entity.LessonPlan, error,
) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, *info)
	f.keys = append(f.keys, apiKey)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.plan, nil
}

type fixture struct {
	uc       *GenerationUsecase
	llm      *fakeLLM
	template *fakeTemplate
	sessions *repository.SessionMemory
	history  *repository.GenerationMemory
	outDir   string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	f := &fixture{
		llm:      &fakeLLM{plan: samplePlan()},
		template: &fakeTemplate{},
		sessions: repository.NewSessionMemory(time.Hour, time.Hour, "", zap.NewNop()),
		history:  repository.NewGenerationMemory(50),
		outDir:   t.TempDir(),
	}
	cfg.OutputDir = f.outDir
	if cfg.DownloadRoute == "" {
		cfg.DownloadRoute = "/download/"
	}

	f.uc = NewUsecase(
		cfg,
		f.llm,
		llm.NewMockConnector(zap.NewNop()),
		f.template.open,
		f.sessions,
		f.history,
		formatter.NewFactory(""),
		nil,
		zap.NewNop(),
	)
	return f
}

func samplePlan() *entity.LessonPlan {
	return &entity.LessonPlan{
		Analysis:   entity.Analysis{Content: "**焊接**基础", Learners: "零基础"},
		Objectives: entity.Objectives{Knowledge: "知识", Ability: "能力", Character: "素质"},
		KeyPoints:  entity.TextList{"重点一", "重点二"},
		Process: []entity.ProcessStep{
			{Phase: "导入", Minutes: "5分钟", Content: "回顾"},
			{Phase: "讲授", Minutes: "40分钟", Content: "新课"},
		},
		Homework: entity.Homework{Basic: "练习", Advanced: "拓展", Preview: "预习"},
	}
}

func TestGenerateLessonPlanDocFillsTemplate(t *testing.T) {
	f := newFixture(t, Config{HasDefaultAPIKey: true})

	outcome, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index: 3,
		Info:  entity.CourseInfo{Topic: "焊接/基础", Class: "电气2班"},
	})
	if err != nil {
		t.Fatalf("GenerateLessonPlanDoc: %v", err)
	}

	if outcome.FileName != "03_焊接-基础.docx" || outcome.Degraded {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, err := os.Stat(filepath.Join(f.outDir, outcome.FileName)); err != nil {
		t.Fatalf("document not saved: %v", err)
	}

	doc := f.template.docs[0]
	if !doc.closed {
		t.Fatal("template not closed")
	}
	if doc.info.Class != "电气2班" {
		t.Fatalf("content info = %+v", doc.info)
	}

	wantOrder := []docx.Field{
		docx.FieldAnalysis, docx.FieldObjectives, docx.FieldKeyPoints,
		docx.FieldDifficulties, docx.FieldMethods, docx.FieldIdeology,
	}
	if fmt.Sprint(doc.modules) != fmt.Sprint(wantOrder) {
		t.Fatalf("module order = %v", doc.modules)
	}
	if got := doc.texts[docx.FieldAnalysis]; got != "【教学内容】\n焊接基础\n\n【学情分析】\n零基础" {
		t.Fatalf("analysis text = %q", got)
	}
	if got := doc.texts[docx.FieldKeyPoints]; got != "1. 重点一\n2. 重点二" {
		t.Fatalf("key points text = %q", got)
	}
	if len(doc.steps) != 2 || doc.steps[1].Phase != "讲授" {
		t.Fatalf("steps = %+v", doc.steps)
	}
	if doc.homework != "1. 基础题：练习\n2. 提升题：拓展\n3. 预习：预习" {
		t.Fatalf("homework = %q", doc.homework)
	}
}

func TestGenerateLessonPlanDocInvalidKeyWritesNothing(t *testing.T) {
	f := newFixture(t, Config{})
	f.llm.errs = []error{fmt.Errorf("%w: 401", entity.ErrInvalidAPIKey)}

	_, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index:  1,
		APIKey: "sk-bad",
		Info:   entity.CourseInfo{Topic: "焊接"},
	})
	if !errors.Is(err, entity.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}

	entries, _ := os.ReadDir(f.outDir)
	if len(entries) != 0 {
		t.Fatalf("no file should be written, found %v", entries)
	}
}

func TestGenerateLessonPlanDocFallsBackWhenExhausted(t *testing.T) {
	f := newFixture(t, Config{})
	f.llm.errs = []error{fmt.Errorf("%w after 5 attempts", entity.ErrGenerationExhausted)}

	outcome, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index:  1,
		APIKey: "sk-ok",
		Info:   entity.CourseInfo{Topic: "焊接"},
	})
	if err != nil {
		t.Fatalf("GenerateLessonPlanDoc: %v", err)
	}
	if !outcome.Degraded {
		t.Fatal("outcome should be marked degraded")
	}

	mock := llm.MockLessonPlan()
	if got := f.template.docs[0].steps; len(got) != len(mock.Process) {
		t.Fatalf("sample plan not written: %d steps", len(got))
	}
}

func TestGenerateLessonPlanDocTemplateFirst(t *testing.T) {
	f := newFixture(t, Config{})
	f.template.openErr = fmt.Errorf("%w: 2 tables", entity.ErrTemplateInvalid)

	_, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index:  1,
		APIKey: "sk-ok",
		Info:   entity.CourseInfo{Topic: "焊接"},
	})
	if !errors.Is(err, entity.ErrTemplateInvalid) {
		t.Fatalf("expected ErrTemplateInvalid, got %v", err)
	}
	if len(f.llm.calls) != 0 {
		t.Fatal("model must not be called when the template is broken")
	}
}

func TestGenerateLessonPlanDocUsesMock(t *testing.T) {
	f := newFixture(t, Config{})

	outcome, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index:   1,
		UseMock: true,
		Info:    entity.CourseInfo{},
	})
	if err != nil {
		t.Fatalf("GenerateLessonPlanDoc: %v", err)
	}
	if len(f.llm.calls) != 0 {
		t.Fatal("model called in mock mode")
	}
	if outcome.Degraded {
		t.Fatal("requested mock data is not degraded")
	}
	if outcome.FileName != "01_课时1.docx" {
		t.Fatalf("file name = %q", outcome.FileName)
	}
}

func TestGenerateLessonPlanDocExportsMarkdown(t *testing.T) {
	f := newFixture(t, Config{HasDefaultAPIKey: true})

	outcome, err := f.uc.GenerateLessonPlanDoc(context.Background(), entity.GenerateRequest{
		Index:         2,
		Info:          entity.CourseInfo{Topic: "焊接"},
		ExportFormats: []entity.ResultFormat{entity.FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("GenerateLessonPlanDoc: %v", err)
	}

	if len(outcome.Exports) != 1 {
		t.Fatalf("exports = %+v", outcome.Exports)
	}
	exp := outcome.Exports[0]
	if exp.FileName != "02_焊接.md" || exp.FileURL != "/download/02_焊接.md" {
		t.Fatalf("export = %+v", exp)
	}

	data, err := os.ReadFile(filepath.Join(f.outDir, exp.FileName))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# 焊接\n") || !strings.Contains(string(data), "## 课外作业") {
		t.Fatalf("markdown export = %q", data)
	}
}

func TestGenerateLessonReportsSession(t *testing.T) {
	f := newFixture(t, Config{HasDefaultAPIKey: true})
	ctx := context.Background()

	result, err := f.uc.GenerateLesson(ctx, entity.GenerateRequest{
		SessionID: "s1",
		Index:     1,
		Info:      entity.CourseInfo{Topic: "焊接"},
	})
	if err != nil {
		t.Fatalf("GenerateLesson: %v", err)
	}
	if !result.Succeeded() || result.FileURL != "/download/01_焊接.docx" {
		t.Fatalf("result = %+v", result)
	}

	s, err := f.sessions.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.Status != entity.SessionStatusCompleted || s.Progress != 100 || len(s.Results) != 1 {
		t.Fatalf("session = %+v", s)
	}

	logs := f.sessions.DrainLogs(ctx, "s1")
	if len(logs) == 0 {
		t.Fatal("generation logged nothing to the session")
	}
	if !strings.HasPrefix(logs[0].Message, "开始生成教案") {
		t.Fatalf("first log line = %q", logs[0].Message)
	}

	history, _ := f.history.ListGenerations(ctx, 0, 10)
	if len(history) != 1 || history[0].Status != entity.GenerationStatusSuccess || history[0].SessionID != "s1" {
		t.Fatalf("history = %+v", history)
	}
}

func TestGenerateLessonFillFailureIsAResult(t *testing.T) {
	f := newFixture(t, Config{HasDefaultAPIKey: true})
	f.template.failOn = 1

	result, err := f.uc.GenerateLesson(context.Background(), entity.GenerateRequest{
		SessionID: "s1",
		Index:     1,
		Info:      entity.CourseInfo{Topic: "焊接"},
	})
	if err != nil {
		t.Fatalf("GenerateLesson: %v", err)
	}
	if result.Succeeded() || result.Message != "文件未生成" {
		t.Fatalf("result = %+v", result)
	}

	history, _ := f.history.ListGenerations(context.Background(), 0, 10)
	if len(history) != 1 || !strings.Contains(history[0].Error, "fill lesson plan document") {
		t.Fatalf("history = %+v", history)
	}
}

func TestCheckAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		key     string
		useMock bool
		wantErr bool
	}{
		{name: "request key", key: "sk-1"},
		{name: "configured key", cfg: Config{HasDefaultAPIKey: true}},
		{name: "mock requested", useMock: true},
		{name: "mocks enabled", cfg: Config{EnableMocks: true}},
		{name: "no key", key: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.cfg)
			err := f.uc.CheckAPIKey(tt.key, tt.useMock)
			if tt.wantErr != errors.Is(err, entity.ErrMissingAPIKey) {
				t.Fatalf("CheckAPIKey = %v", err)
			}
		})
	}
}

func TestBatchContinuesPastFailedLesson(t *testing.T) {
	f := newFixture(t, Config{HasDefaultAPIKey: true})
	f.template.failOn = 2
	ctx := context.Background()

	outcome, err := f.uc.BatchGenerate(ctx, entity.BatchRequest{
		SessionID: "s1",
		Fixed:     entity.CourseInfo{Course: "电子焊接", Class: "1班"},
		Lessons: []entity.CourseInfo{
			{Topic: "焊接工具"},
			{Topic: "焊接材料", Class: "2班"},
			{Topic: "焊接工艺"},
		},
	})
	if err != nil {
		t.Fatalf("BatchGenerate: %v", err)
	}

	if outcome.AllSucceeded {
		t.Fatal("batch with a failed lesson reported full success")
	}
	if len(outcome.Results) != 3 {
		t.Fatalf("results = %+v", outcome.Results)
	}

	wantStatus := []entity.GenerationStatus{
		entity.GenerationStatusSuccess, entity.GenerationStatusFailure, entity.GenerationStatusSuccess,
	}
	wantFiles := []string{"01_焊接工具.docx", "", "03_焊接工艺.docx"}
	for i, r := range outcome.Results {
		if r.Status != wantStatus[i] || r.FileName != wantFiles[i] {
			t.Fatalf("result %d = %+v", i, r)
		}
	}

	for _, name := range []string{"01_焊接工具.docx", "03_焊接工艺.docx"} {
		if _, err := os.Stat(filepath.Join(f.outDir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(f.outDir, "02_焊接材料.docx")); !os.IsNotExist(err) {
		t.Fatal("failed lesson must not leave a file")
	}

	// Fixed fields are merged under every lesson.
	if f.llm.calls[0].Course != "电子焊接" || f.llm.calls[0].Class != "1班" || f.llm.calls[1].Class != "2班" {
		t.Fatalf("merged infos = %+v", f.llm.calls)
	}

	s, _ := f.sessions.GetSession(ctx, "s1")
	if s.Progress != 100 || len(s.Results) != 3 || s.Status != entity.SessionStatusFailed {
		t.Fatalf("session = %+v", s)
	}
}

func TestBatchStopsOnInvalidKey(t *testing.T) {
	f := newFixture(t, Config{})
	f.llm.errs = []error{nil, fmt.Errorf("%w: 401", entity.ErrInvalidAPIKey)}

	outcome, err := f.uc.BatchGenerate(context.Background(), entity.BatchRequest{
		APIKey:  "sk-revoked",
		Lessons: []entity.CourseInfo{{Topic: "a"}, {Topic: "b"}, {Topic: "c"}},
	})
	if !errors.Is(err, entity.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
	if len(f.llm.calls) != 2 {
		t.Fatalf("batch should stop after the rejected lesson, made %d calls", len(f.llm.calls))
	}
	if outcome == nil || len(outcome.Results) != 1 || outcome.AllSucceeded {
		t.Fatalf("partial outcome = %+v", outcome)
	}
	for _, key := range f.llm.keys {
		if key != "sk-revoked" {
			t.Fatalf("request key not forwarded: %q", key)
		}
	}
}

func TestBatchRequiresKeyAndLessons(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.uc.BatchGenerate(context.Background(), entity.BatchRequest{
		Lessons: []entity.CourseInfo{{Topic: "a"}},
	})
	if !errors.Is(err, entity.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	_, err = f.uc.BatchGenerate(context.Background(), entity.BatchRequest{UseMock: true})
	if !errors.Is(err, entity.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestListGenerationsNormalizes(t *testing.T) {
	f := newFixture(t, Config{})
	for i := range 3 {
		f.history.CreateGeneration(context.Background(), entity.GenerationRecord{LessonIndex: i + 1})
	}

	req := &entity.ListGenerationsRequest{Skip: -1, Limit: 0}
	got, err := f.uc.ListGenerations(context.Background(), req)
	if err != nil {
		t.Fatalf("ListGenerations: %v", err)
	}
	if req.Limit != 20 || len(got) != 3 || got[0].LessonIndex != 3 {
		t.Fatalf("limit %d, records %+v", req.Limit, got)
	}
}
