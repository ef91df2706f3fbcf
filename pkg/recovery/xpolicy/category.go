package xpolicy

// Category 错误类别。
// 类别由外部的错误分类器产出，引擎只消费 (category, subcategory) 对。
type Category string

// 内置错误类别。
const (
	// CategoryNetwork 网络错误（连接重置、DNS 失败等），默认可重试。
	CategoryNetwork Category = "network"

	// CategoryTimeout 超时错误，默认可重试。
	CategoryTimeout Category = "timeout"

	// CategoryRateLimit 限流错误（429 等），默认可重试且退避更长。
	CategoryRateLimit Category = "rate_limit"

	// CategoryServer 服务端错误（5xx 等），默认可重试。
	CategoryServer Category = "server"

	// CategoryResource 资源错误（连接池耗尽、磁盘满等），默认可重试。
	CategoryResource Category = "resource"

	// CategoryAuth 认证/授权错误，默认不可重试（需要人工介入）。
	CategoryAuth Category = "auth"

	// CategoryValidation 输入校验错误，默认不可重试（快速失败是设计行为）。
	CategoryValidation Category = "validation"

	// CategoryUnknown 未知类别，按保守策略处理。
	CategoryUnknown Category = "unknown"
)

// CircuitKey 返回 (component, category) 对应的电路键。
// 格式为 "component:category"，熔断状态与自适应调整均以此键索引。
// component 为空时退化为 "default:category"。
func CircuitKey(component string, category Category) string {
	if component == "" {
		component = "default"
	}
	if category == "" {
		category = CategoryUnknown
	}
	return component + ":" + string(category)
}

// Classification 外部分类器对 (category, subcategory) 的判定结果。
type Classification struct {
	// Severity 严重级别（如 "low"、"high"），引擎不消费，仅透传。
	Severity string

	// Recoverable 该类别是否天然可恢复。
	Recoverable bool

	// RecommendedStrategy 分类器建议的恢复策略。
	RecommendedStrategy string
}

// Classifier 错误分类协作方接口。
//
// 引擎只在构建默认策略表时咨询分类器（标记类别是否可重试），
// 不会在每次尝试时调用。
type Classifier interface {
	Classify(category Category, subcategory string) Classification
}
