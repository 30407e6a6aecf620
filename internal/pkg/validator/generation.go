package validator

import (
	"fmt"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// ValidateGenerate validates a single-lesson generation request
func (v *Validator) ValidateGenerate(req *entity.GenerateLessonRequest) error {
	if req.VariableCourseInfo == nil {
		return fmt.Errorf("%w: variable_course_info", entity.ErrMissingField)
	}
	if req.LessonIndex < 0 {
		return fmt.Errorf("%w: lesson_index must not be negative", entity.ErrInvalidParameter)
	}

	return validateFormats(req.ExportFormats)
}

// ValidateBatch validates a batch generation request
func (v *Validator) ValidateBatch(req *entity.BatchGenerateRequest) error {
	if len(req.VariableCourseInfos) == 0 {
		return fmt.Errorf("%w: variable_course_infos", entity.ErrMissingField)
	}

	return validateFormats(req.ExportFormats)
}

func validateFormats(formats []entity.ResultFormat) error {
	for _, f := range formats {
		if !f.IsValid() {
			return fmt.Errorf("%w: unsupported export format %q", entity.ErrInvalidFormat, f)
		}
	}
	return nil
}
