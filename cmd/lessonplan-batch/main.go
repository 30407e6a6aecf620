// Command lessonplan-batch generates the lesson plans of a whole course
// described in a JSON file, without the web client.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/futig/lessonplan-backend/internal/builder"
	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

func main() {
	coursePath := flag.String("course", "course.json", "JSON file with fixed_course_info and variable_course_infos")
	apiKey := flag.String("api-key", "", "DeepSeek API key (defaults to LLM_TOKEN)")
	useMock := flag.Bool("mock", false, "Write the sample plan instead of calling the model")
	formats := flag.String("formats", "", "Extra export formats, comma separated (markdown, pdf)")

	// LoadConfig parses the command line, so every flag is registered above
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	req, err := readCourse(*coursePath)
	if err != nil {
		log.Fatal("Failed to read course:", err)
	}

	app, err := builder.BuildBatch(cfg)
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}
	defer app.Close()

	lessons := make([]entity.CourseInfo, 0, len(req.VariableCourseInfos))
	for _, lesson := range req.VariableCourseInfos {
		lessons = append(lessons, lesson.CourseInfo)
	}

	key := req.APIKey
	if *apiKey != "" {
		key = *apiKey
	}

	ctx := ctxzap.ToContext(context.Background(), app.Logger)
	outcome, err := app.Generation.BatchGenerate(ctx, entity.BatchRequest{
		Fixed:         cfg.DefaultCourseCfg.CourseInfo().Merge(req.FixedCourseInfo),
		Lessons:       lessons,
		APIKey:        key,
		UseMock:       *useMock || req.UseMock,
		ExportFormats: parseFormats(*formats, req.ExportFormats),
	})
	if outcome != nil {
		for i, r := range outcome.Results {
			line := fmt.Sprintf("%2d. [%s] %s", i+1, r.Status, r.Topic)
			if r.FileName != "" {
				line += " -> " + r.FileName
			}
			if r.Degraded {
				line += " (sample plan)"
			}
			if r.Message != "" {
				line += ": " + r.Message
			}
			fmt.Println(line)
		}
	}
	if err != nil {
		app.Logger.Error("batch generation stopped", zap.Error(err))
		app.Close()
		os.Exit(1)
	}
	if !outcome.AllSucceeded {
		app.Close()
		os.Exit(2)
	}
}

func readCourse(path string) (*entity.BatchGenerateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var req entity.BatchGenerateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(req.VariableCourseInfos) == 0 {
		return nil, fmt.Errorf("%s: %w: variable_course_infos", path, entity.ErrMissingField)
	}
	return &req, nil
}

func parseFormats(flagValue string, fromFile []entity.ResultFormat) []entity.ResultFormat {
	if flagValue == "" {
		return fromFile
	}

	var out []entity.ResultFormat
	for _, f := range strings.Split(flagValue, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		format := entity.ResultFormat(f)
		if !format.IsValid() {
			log.Fatalf("unsupported export format %q", f)
		}
		out = append(out, format)
	}
	return out
}
