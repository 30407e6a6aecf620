package generation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/formatter"
)

// OutputFileName names the document of the index-th lesson (1-based).
func OutputFileName(index int, topic string) string {
	return fmt.Sprintf("%02d_%s.docx", index, entity.SafeTopic(topic))
}

// LessonTopic returns the lesson topic or a numbered placeholder.
func LessonTopic(info entity.CourseInfo, index int) string {
	if topic := strings.TrimSpace(info.Topic); topic != "" {
		return info.Topic
	}
	return fmt.Sprintf("课时%d", index)
}

func FormatAnalysis(a entity.Analysis) string {
	return fmt.Sprintf("【教学内容】\n%s\n\n【学情分析】\n%s", a.Content, a.Learners)
}

func FormatObjectives(o entity.Objectives) string {
	return fmt.Sprintf("1. 知识目标：%s\n2. 能力目标：%s\n3. 素质目标：%s", o.Knowledge, o.Ability, o.Character)
}

// FormatList numbers items one per line: ["x","y"] becomes "1. x\n2. y".
func FormatList(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

func FormatMethods(m entity.MethodsAndResources) string {
	return fmt.Sprintf("【教学方法】\n%s\n\n【教学资源】\n%s", m.Methods, m.Resources)
}

func FormatHomework(h entity.Homework) string {
	return fmt.Sprintf("1. 基础题：%s\n2. 提升题：%s\n3. 预习：%s", h.Basic, h.Advanced, h.Preview)
}

var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("```[\\s\\S]*?```"), ""},
	{regexp.MustCompile(`(?m)^#{1,6}\s*`), ""},
	{regexp.MustCompile(`!\[(.*?)\]\(.*?\)`), "$1"},
	{regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`__(.*?)__`), "$1"},
	{regexp.MustCompile("`(.*?)`"), "$1"},
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},
	{regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*>[ \t]*`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// MarkdownToPlainText strips markdown markup (headings, emphasis, code,
// links, list and quote markers, rules) and keeps the text.
func MarkdownToPlainText(s string) string {
	if s == "" {
		return ""
	}
	for _, rule := range markdownRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return strings.TrimSpace(s)
}

func plain(t entity.Text) entity.Text {
	return entity.Text(MarkdownToPlainText(string(t)))
}

func plainList(items entity.TextList) entity.TextList {
	out := make(entity.TextList, 0, len(items))
	for _, item := range items {
		out = append(out, MarkdownToPlainText(item))
	}
	return out
}

// plainPlan returns a copy of p with markdown markup removed from every
// field the model wrote.
func plainPlan(p *entity.LessonPlan) *entity.LessonPlan {
	out := &entity.LessonPlan{
		Analysis: entity.Analysis{
			Content:  plain(p.Analysis.Content),
			Learners: plain(p.Analysis.Learners),
		},
		Objectives: entity.Objectives{
			Knowledge: plain(p.Objectives.Knowledge),
			Ability:   plain(p.Objectives.Ability),
			Character: plain(p.Objectives.Character),
		},
		KeyPoints:    plainList(p.KeyPoints),
		Difficulties: plainList(p.Difficulties),
		Methods: entity.MethodsAndResources{
			Methods:   plain(p.Methods.Methods),
			Resources: plain(p.Methods.Resources),
		},
		Ideology: plainList(p.Ideology),
		Homework: entity.Homework{
			Basic:    plain(p.Homework.Basic),
			Advanced: plain(p.Homework.Advanced),
			Preview:  plain(p.Homework.Preview),
		},
	}

	out.Process = make([]entity.ProcessStep, 0, len(p.Process))
	for _, step := range p.Process {
		out.Process = append(out.Process, entity.ProcessStep{
			Phase:           plain(step.Phase),
			Minutes:         plain(step.Minutes),
			Content:         plain(step.Content),
			TeacherActivity: plain(step.TeacherActivity),
			StudentActivity: plain(step.StudentActivity),
		})
	}

	return out
}

// planDocument lays a plan out as sections for the markdown and PDF exports,
// in the same order as the Word template.
func planDocument(topic string, p *entity.LessonPlan) formatter.Document {
	var process strings.Builder
	for i, step := range p.Process {
		if i > 0 {
			process.WriteString("\n\n")
		}
		fmt.Fprintf(&process, "%d. %s（%s）\n内容：%s\n教师活动：%s\n学生活动：%s",
			i+1, step.Phase, step.Minutes, step.Content, step.TeacherActivity, step.StudentActivity)
	}

	return formatter.Document{
		Title: topic,
		Sections: []formatter.Section{
			{Heading: "教学内容及学情分析", Body: FormatAnalysis(p.Analysis)},
			{Heading: "教学目标", Body: FormatObjectives(p.Objectives)},
			{Heading: "教学重点", Body: FormatList(p.KeyPoints)},
			{Heading: "教学难点", Body: FormatList(p.Difficulties)},
			{Heading: "教学方法与教学资源", Body: FormatMethods(p.Methods)},
			{Heading: "思政元素", Body: FormatList(p.Ideology)},
			{Heading: "教学实施过程", Body: process.String()},
			{Heading: "课外作业", Body: FormatHomework(p.Homework)},
		},
	}
}
