package converter

import (
	"context"
	"fmt"

	"github.com/liuzl/gocc"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/logger"
)

// openCCConverter 是 TextConverter 的一个实现
type openCCConverter struct {
	converter *gocc.OpenCC
	logger    *logger.Logger
}

// NewOpenCCConverter 初始化并返回一个 OpenCC 转换器实例
func NewOpenCCConverter(log *logger.Logger) (TextConverter, error) {
	// t2s 代表 Traditional Chinese to Simplified Chinese
	converter, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenCC converter: %w", err)
	}
	log.Info(context.Background(), "OpenCC converter (t2s) initialized")
	return &openCCConverter{converter: converter, logger: log}, nil
}

// TradToSim 将繁体中文转换为简体，转换失败时返回原文
func (c *openCCConverter) TradToSim(text string) string {
	if c.converter == nil || text == "" {
		return text
	}
	out, err := c.converter.Convert(text)
	if err != nil {
		c.logger.Warn(context.Background(), "Failed to convert text from Traditional to Simplified",
			zap.String("text", text), zap.Error(err))
		return text
	}
	return out
}
