package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LessonPlan is the structured content returned by the model.
// Missing keys decode to zero values and end up as blank cells.
type LessonPlan struct {
	Analysis     Analysis            `json:"教学内容及学情分析"`
	Objectives   Objectives          `json:"教学目标"`
	KeyPoints    TextList            `json:"教学重点"`
	Difficulties TextList            `json:"教学难点"`
	Methods      MethodsAndResources `json:"教学方法与教学资源"`
	Ideology     TextList            `json:"思政元素"`
	Process      []ProcessStep       `json:"教学实施过程"`
	Homework     Homework            `json:"课外作业"`
}

type Analysis struct {
	Content  Text `json:"教学内容"`
	Learners Text `json:"学情分析"`
}

type Objectives struct {
	Knowledge Text `json:"知识目标"`
	Ability   Text `json:"能力目标"`
	Character Text `json:"素质目标"`
}

type MethodsAndResources struct {
	Methods   Text `json:"教学方法"`
	Resources Text `json:"教学资源"`
}

// ProcessStep is one phase of in-class activity.
type ProcessStep struct {
	Phase           Text `json:"环节"`
	Minutes         Text `json:"时间"`
	Content         Text `json:"内容"`
	TeacherActivity Text `json:"教师活动"`
	StudentActivity Text `json:"学生活动"`
}

type Homework struct {
	Basic    Text `json:"基础题"`
	Advanced Text `json:"提升题"`
	Preview  Text `json:"预习题"`
}

// IsEmpty reports whether none of the known sections were present.
func (p *LessonPlan) IsEmpty() bool {
	return p.Analysis == (Analysis{}) &&
		p.Objectives == (Objectives{}) &&
		len(p.KeyPoints) == 0 &&
		len(p.Difficulties) == 0 &&
		p.Methods == (MethodsAndResources{}) &&
		len(p.Ideology) == 0 &&
		len(p.Process) == 0 &&
		p.Homework == (Homework{})
}

// Text is a string field that also accepts numbers, booleans, arrays and
// objects, which models occasionally return instead of plain strings.
type Text string

func (t Text) String() string {
	return string(t)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	v, err := decodeLoose(data)
	if err != nil {
		return err
	}
	*t = Text(flatten(v))
	return nil
}

// TextList is a list of strings that also accepts a single scalar.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	v, err := decodeLoose(data)
	if err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
		*l = nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, flatten(item))
		}
		*l = items
	default:
		s := flatten(x)
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		*l = TextList{s}
	}

	return nil
}

// LessonID is the client-side lesson identifier; the web client sends it
// either as a number or as a string.
type LessonID string

func (id *LessonID) UnmarshalJSON(data []byte) error {
	v, err := decodeLoose(data)
	if err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
		*id = ""
	case string, json.Number:
		*id = LessonID(flatten(x))
	default:
		return fmt.Errorf("%w: lesson id must be a string or number", ErrInvalidParameter)
	}
	return nil
}

func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+"："+flatten(x[k]))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprint(x)
	}
}
