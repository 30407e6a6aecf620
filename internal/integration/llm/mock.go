package llm

import (
	"context"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns the sample lesson plan without calling the model.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) GenerateLessonPlan(ctx context.Context, _ string, info *entity.CourseInfo) (
	*entity.LessonPlan, error,
) {
	ctxzap.Info(ctx, "[MOCK] generating lesson plan", zap.String("topic", info.Topic))
	return MockLessonPlan(), nil
}

// MockLessonPlan returns a fresh copy of the sample plan. It is also the
// fallback written when the model never produces a usable answer.
func MockLessonPlan() *entity.LessonPlan {
	return &entity.LessonPlan{
		Analysis: entity.Analysis{
			Content:  "本节课先通过知识回顾环节复习无人机机体材料及应用，检查相关作业并以提问方式引出电气材料主题；随后重点讲解无人机装调的电气材料，包括插头类、线材类、辅助类的种类及核心用途，再讲解加固材料的种类及装调场景应用，明确各类材料对应的使用场景和注意事项。",
			Learners: "学生对插头、电线、胶水等材料有生活认知，能快速关联连接、固定的功能，具备一定的材料特性基础认知；但对插头型号适配性、AWG硅胶线型号与粗细的关系理解模糊，缺乏专业的材料选型和应用认知。",
		},
		Objectives: entity.Objectives{
			Knowledge: "能说出3类电气材料、2类加固材料的名称；能对应2类材料的用途，明确XT60插头、尼龙扎带等核心材料的应用场景；知道“AWG型号越大，硅胶线越细”的规则。",
			Ability:   "能根据无人机装调的具体场景，准确选择对应的电气材料和加固材料，建立“场景-材料”的匹配逻辑。",
			Character: "通过插头型号错配导致短路的案例，培养规范操作的职业意识；通过国产加固材料的高性价比案例，渗透国货优选理念，树立支持国产的意识。",
		},
		KeyPoints: entity.TextList{
			"电气材料（插头类、线材类）、加固材料的名称及核心用途",
			"XT60插头的适配场景和应用方法",
			"尼龙扎带在无人机装调中的固定应用场景",
		},
		Difficulties: entity.TextList{
			"区分T型插头与XT60插头的适配场景，明确二者不可混用的原则",
			"理解并掌握AWG硅胶线型号与粗细、承载电流的对应关系",
		},
		Methods: entity.MethodsAndResources{
			Methods:   "讲授法、图片对比法、案例警示法",
			Resources: "课件PPT（含T型/XT60插头、杜邦线、尼龙扎带等材料实物图）、插头错配导致短路的示意图、简化版《电气/加固材料用途表》",
		},
		Ideology: entity.TextList{
			"通过我国尼龙扎带产量占全球80%、质量达标且价格仅为进口1/3的行业数据，结合无人机装调企业优先选用国产加固材料的实际案例，引导学生认识国货优势，树立支持国产、国货优选的意识",
			"通过插头错配导致短路的安全案例，强调无人机装调的规范操作要求，培养学生严谨细致、遵规守纪的职业素养",
			"在材料选型和应用讲解中，渗透工业制造的标准化理念，培养学生的工程规范意识",
		},
		Process: []entity.ProcessStep{
			{
				Phase:           "知识回顾",
				Minutes:         "7min",
				Content:         "提问多旋翼无人机机架的材料及选用原因；检查作业，邀请2名学生分享家中物品材料及特性并点评关联无人机材料应用；展示无人机电池与电调连接图片，追问连接插头类型，导入电气材料主题。",
				TeacherActivity: "对学生回答进行补充修正；结合作业分享引导学生迁移材料特性的分析逻辑；用实物图片激发学生对电气材料的探究兴趣。",
				StudentActivity: "回忆上节课内容并准确回答问题；分享作业内容，倾听同伴分析并迁移学习逻辑；观察图片，思考连接插头的类型。",
			},
			{
				Phase:           "新知讲授1：电气材料",
				Minutes:         "15min",
				Content:         "按连接功能分类讲解电气材料：插头类介绍T型、XT60插头的外观、适配场景及不可混用原则；线材类介绍杜邦线、AWG硅胶线的应用场景及AWG型号与粗细的关系；辅助类介绍焊锡、热缩管的核心用途。",
				TeacherActivity: "讲解每类材料同步展示实物图，标注核心用途+注意事项；用铅笔型号类比帮助学生理解AWG硅胶线型号与粗细的关系；展示插头错配导致短路的示意图，警示规范选择材料的重要性。",
				StudentActivity: "记录材料的名称、用途及注意事项，用不同颜色标注重点；结合类比理解AWG型号规则，观察示意图认识错配的安全风险；主动提问，理解杜邦线适合飞控连接的原因。",
			},
			{
				Phase:           "新知讲授2：加固材料",
				Minutes:         "8min",
				Content:         "按固定功能讲解加固材料：介绍热熔胶、尼龙扎带、魔术贴、螺栓螺母的实物应用场景图，明确各类材料的核心固定用途和使用特点。",
				TeacherActivity: "展示各类加固材料的应用场景图，引导学生观察固定效果；提出启发性问题，引导学生思考不同材料的选用差异。",
				StudentActivity: "记录各类加固材料的用途，标注关键使用特点；思考教师提出的问题，回答材料选用的原因，理解场景与材料的匹配逻辑。",
			},
			{
				Phase:           "互动巩固",
				Minutes:         "8min",
				Content:         "开展“场景选材料”问答活动，给出电池与电调连接、导线捆扎、电池固定3个装调场景，让学生选择对应材料并说明理由。",
				TeacherActivity: "依次呈现场景，引导学生集体回答；对重点场景进行追问拓展，引导学生思考同一场景的多种材料选择方案。",
				StudentActivity: "集体洪亮回答问题并说明材料选用理由；思考拓展问题，举手补充同场景的其他适配材料；强化场景与材料的匹配逻辑。",
			},
			{
				Phase:           "小结与课外作业",
				Minutes:         "2min",
				Content:         "梳理本节课核心知识，回顾电气材料、加固材料的核心用途及2个关键规则；布置课外作业，明确作业要求和下节课分享要求。",
				TeacherActivity: "以“材料类型+用途”的框架带领学生回顾核心知识，强化记忆；明确课外作业的具体要求，提醒标注用途需结合本节课知识。",
				StudentActivity: "跟着教师回顾知识，补充完善课堂笔记；准确记录作业内容，规划课后完成步骤。",
			},
		},
		Homework: entity.Homework{
			Basic:    "网上搜索“无人机XT60插头”“无人机尼龙扎带”的产品图，各保存1张并结合本节课知识标注材料的核心用途，下节课进行分享。",
			Advanced: "对比搜索T型插头和XT60插头的产品参数，简要总结二者在电流承载能力上的差异。",
			Preview:  "预习无人机装调常用工具的种类，了解剥线钳、焊枪的基本使用方法。",
		},
	}
}
