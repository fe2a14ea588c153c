package memories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 是 Memory.Date 的格式
const DateLayout = "2006-01-02"

// ErrInvalidMemory 表示提交的回忆缺少字段或日期格式错误
var ErrInvalidMemory = errors.New("invalid memory")

// Colors 是时间线圆点可用的主题色
var Colors = []string{"primary", "secondary", "accent"}

// Memory 是时间线上的一条回忆
type Memory struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ImageSrc    string `json:"imageSrc,omitempty"`
	Color       string `json:"color"`
}

// NewMemory 是新增回忆的请求体
type NewMemory struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ImageSrc    string `json:"imageSrc,omitempty"`
}

// Validate 检查必填字段并规范化空白
func (m *NewMemory) Validate() error {
	m.Title = strings.TrimSpace(m.Title)
	m.Date = strings.TrimSpace(m.Date)
	m.Description = strings.TrimSpace(m.Description)
	m.ImageSrc = strings.TrimSpace(m.ImageSrc)
	if m.Title == "" || m.Date == "" || m.Description == "" {
		return fmt.Errorf("%w: title, date and description are required", ErrInvalidMemory)
	}
	if _, err := time.Parse(DateLayout, m.Date); err != nil {
		return fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrInvalidMemory)
	}
	return nil
}

// Store 定义回忆时间线的存储接口
type Store interface {
	List(ctx context.Context) ([]Memory, error)          // 按日期升序返回全部回忆
	Add(ctx context.Context, m NewMemory) (Memory, error) // 校验并保存一条回忆
	Close() error                                         // 关闭数据库连接
}

// Seed 是启动时写入的初始回忆
var Seed = []NewMemory{
	{
		Title:       "Our First Meeting",
		Date:        "2022-01-15",
		Description: "The day our paths crossed for the first time at the downtown café. You were reading your favorite book.",
	},
	{
		Title:       "First Hike Together",
		Date:        "2022-03-08",
		Description: "We conquered the mountain trail and watched the sunrise from the peak. Your smile was brighter than the sun.",
	},
	{
		Title:       "Beach Vacation",
		Date:        "2022-07-22",
		Description: "Our week at the beach, building sandcastles and watching the stars. We promised to return every year.",
	},
	{
		Title:       "Concert Night",
		Date:        "2022-09-30",
		Description: "Dancing under the lights at your favorite band's concert. The night we decided this would be \"our song.\"",
	},
}
