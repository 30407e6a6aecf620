package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	maxReferenceRunes  = 30000
	maxFeedbackRunes   = 500
	truncationMarker   = "...\n[文档内容过长，已截断]"
	defaultPromptTopic = "未命名课题"
)

const descriptionSection = `

【教师对本节课的描述和想法】
%s

请特别注意：以上描述是授课教师对本节课的具体设想和期望，在生成教案内容时，请务必结合并体现这些想法，使生成的教案更贴近教师的实际教学需求。`

const referenceSection = `

【参考文档内容】
%s

请特别注意：以上文档是本节课的参考资料，包含重要的教学内容、知识点或教学素材。在生成教案时，请务必：
1. 仔细阅读并理解文档中的核心内容
2. 将文档中的知识点融入到教学目标、教学内容和教学实施过程中
3. 参考文档中的案例、示例或数据来丰富教案内容
4. 确保生成的教案与参考文档的内容保持一致性和连贯性`

const referenceEntry = `
--- 参考文档%d: %s ---
%s
`

const promptTemplate = `请为以下课程生成完整的教案内容，以JSON格式返回。

课程信息：
- 课题名称：%s
- 专业名称：%s
- 课程名称：%s
- 授课班级：%s
- 授课学时：%s%s%s

请严格按照以下JSON格式返回（不要添加任何其他文字说明，只返回JSON）：

{
    "教学内容及学情分析": {
        "教学内容": "详细描述本节课的教学内容，200-300字",
        "学情分析": "分析学生已有基础、学习特点和可能遇到的困难，150-200字"
    },
    "教学目标": {
        "知识目标": "掌握...，理解...",
        "能力目标": "能独立完成...，具备...能力",
        "素质目标": "培养...意识，树立...精神"
    },
    "教学重点": [
        "重点1：核心知识点或技能",
        "重点2：关键操作步骤",
        "重点3：安全规范或质量标准"
    ],
    "教学难点": [
        "难点1：抽象概念或复杂操作",
        "难点2：易错环节或常见困惑"
    ],
    "教学方法与教学资源": {
        "教学方法": "项目教学法、任务驱动法、示范教学法",
        "教学资源": "实训设备、多媒体课件、操作手册"
    },
    "思政元素": [
        "思政点1：结合专业领域的国家发展价值",
        "思政点2：强调职业规范、工匠精神",
        "思政点3：培养团队协作和安全意识",
        "思政点4：增强民族自豪感和自主创新意识"
    ],
    "教学实施过程": [
        {
            "环节": "环节名称（如：任务导入、知识讲解等）",
            "时间": "XXmin",
            "内容": "具体教学内容描述",
            "教师活动": "教师的具体活动",
            "学生活动": "学生的具体活动"
        }
    ],
    "课外作业": {
        "基础题": "巩固基础知识的题目",
        "提升题": "拓展能力的题目",
        "预习题": "下节课预习内容"
    }
}

要求：
1. 严格按照上述JSON格式返回，确保JSON格式合法，字符串之间不要遗漏逗号
2. 教学实施过程的环节数量由你根据课题特点灵活设计（建议4-6个环节），每1学时按45分钟计算，根据授课学时计算总时长，各环节时间之和必须等于总时长
3. 各环节时间分配要合理，符合理实一体化教学规律（如：导入5-10分钟、总结5-10分钟）
4. 内容要贴合课题特点，符合高职理实一体化教学特点
5. 所有文本字段使用纯文本，不要使用Markdown格式
6. 只返回JSON，不要添加` + "```json" + `标记或其他说明文字`

const repairSection = `

--- 之前的生成结果解析失败 ---
错误原因：%s
返回内容：%s...

请重新生成，确保返回的是纯JSON格式，不要包含任何其他文字说明。`

// BuildPrompt renders the generation prompt for one lesson.
func BuildPrompt(info *entity.CourseInfo) string {
	var description string
	if text := strings.TrimSpace(info.Description); text != "" {
		description = fmt.Sprintf(descriptionSection, text)
	}

	return fmt.Sprintf(promptTemplate,
		info.Topic,
		info.Major,
		info.Course,
		info.Class,
		info.Duration,
		description,
		buildReferenceSection(info.References),
	)
}

func buildReferenceSection(docs []entity.ReferenceDocument) string {
	var entries strings.Builder
	for i, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		if runes := []rune(content); len(runes) > maxReferenceRunes {
			content = string(runes[:maxReferenceRunes]) + truncationMarker
		}
		fmt.Fprintf(&entries, referenceEntry, i+1, doc.DisplayName(), content)
	}

	if entries.Len() == 0 {
		return ""
	}
	return fmt.Sprintf(referenceSection, entries.String())
}

// RepairPrompt appends the parse failure of the previous answer to base so
// the model can correct itself.
func RepairPrompt(base, lastErr, lastContent string) string {
	if runes := []rune(lastContent); len(runes) > maxFeedbackRunes {
		lastContent = string(runes[:maxFeedbackRunes])
	}
	return base + fmt.Sprintf(repairSection, lastErr, lastContent)
}

// PromptRecorder keeps an audit copy of every prompt sent for a lesson.
// A nil recorder or an empty directory records nothing.
type PromptRecorder struct {
	dir string
	now func() time.Time
}

func NewPromptRecorder(dir string) *PromptRecorder {
	return &PromptRecorder{dir: dir, now: time.Now}
}

// Save writes the prompt to disk and returns the file path. Failures are
// logged and reported as an empty path.
func (r *PromptRecorder) Save(ctx context.Context, info *entity.CourseInfo, prompt string) string {
	if r == nil || r.dir == "" {
		return ""
	}

	topic := info.Topic
	if strings.TrimSpace(topic) == "" {
		topic = defaultPromptTopic
	}
	now := r.now()
	path := filepath.Join(r.dir, fmt.Sprintf("prompt_%s_%s.txt", entity.SafeTopic(topic), now.Format("20060102_150405")))

	rule := strings.Repeat("=", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n教案生成提示词\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "课题名称: %s\n", topic)
	fmt.Fprintf(&b, "课程名称: %s\n", info.Course)
	fmt.Fprintf(&b, "专业名称: %s\n", info.Major)
	fmt.Fprintf(&b, "授课班级: %s\n", info.Class)
	fmt.Fprintf(&b, "授课学时: %s\n", info.Duration)
	fmt.Fprintf(&b, "保存时间: %s\n", now.Format(time.DateTime))
	fmt.Fprintf(&b, "\n%s\n提示词内容:\n%s\n\n", rule, rule)
	b.WriteString(prompt)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		ctxzap.Warn(ctx, "failed to create prompt directory", zap.String("dir", r.dir), zap.Error(err))
		return ""
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		ctxzap.Warn(ctx, "failed to save prompt", zap.String("path", path), zap.Error(err))
		return ""
	}

	ctxzap.Debug(ctx, "prompt saved", zap.String("path", path))
	return path
}
