package converter

// TextConverter 定义文本转换器接口，用于规范化曲目标题和艺术家
type TextConverter interface {
	TradToSim(text string) string // 将繁体中文转换为简体
}

// identity 原样返回文本，未启用转换时使用
type identity struct{}

// Identity 返回不做任何转换的 TextConverter
func Identity() TextConverter {
	return identity{}
}

func (identity) TradToSim(text string) string { return text }
