package memories

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"

	_ "github.com/mattn/go-sqlite3" // SQLite 驱动
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/logger"
)

// MemoryDSN 是默认的数据源：进程内存，重启即清空
const MemoryDSN = ":memory:"

// sqliteStore 是 Store 接口的 SQLite 实现
type sqliteStore struct {
	db     *sql.DB
	logger *logger.Logger
	color  func() string
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		image_src TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

// NewSQLiteStore 初始化 SQLite 数据库，写入初始回忆，并返回 Store 接口实例
func NewSQLiteStore(dataSourceName string, log *logger.Logger) (Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// 每个 :memory: 连接都是独立的数据库，只保留一个连接
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memories table: %w", err)
	}
	s := &sqliteStore{db: db, logger: log, color: randomColor}
	if err := s.seed(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	log.Info(context.Background(), "SQLite database initialized", zap.String("dsn", dataSourceName))
	return s, nil
}

func randomColor() string {
	return Colors[rand.IntN(len(Colors))]
}

// seed 仅在表为空时写入初始回忆
func (s *sqliteStore) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&count); err != nil {
		return fmt.Errorf("failed to count memories: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i, m := range Seed {
		if _, err := s.insert(ctx, m, Colors[i%len(Colors)]); err != nil {
			return fmt.Errorf("failed to seed memories: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func (s *sqliteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.logger.Info(context.Background(), "SQLite database connection closed")
		return err
	}
	return nil
}

// List 按日期升序返回全部回忆
func (s *sqliteStore) List(ctx context.Context) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, date, description, image_src, color FROM memories ORDER BY date, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	list := make([]Memory, 0)
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.Title, &m.Date, &m.Description, &m.ImageSrc, &m.Color); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memories: %w", err)
	}
	return list, nil
}

// Add 校验并保存一条回忆，颜色随机分配
func (s *sqliteStore) Add(ctx context.Context, m NewMemory) (Memory, error) {
	if err := m.Validate(); err != nil {
		return Memory{}, err
	}
	saved, err := s.insert(ctx, m, s.color())
	if err != nil {
		s.logger.Error(ctx, "Failed to add memory", zap.String("title", m.Title), zap.Error(err))
		return Memory{}, fmt.Errorf("failed to add memory %q: %w", m.Title, err)
	}
	s.logger.Info(ctx, "Memory added", zap.Int64("id", saved.ID), zap.String("title", saved.Title))
	return saved, nil
}

func (s *sqliteStore) insert(ctx context.Context, m NewMemory, color string) (Memory, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO memories (title, date, description, image_src, color) VALUES (?, ?, ?, ?, ?)",
		m.Title, m.Date, m.Description, m.ImageSrc, color)
	if err != nil {
		return Memory{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Memory{}, err
	}
	return Memory{
		ID:          id,
		Title:       m.Title,
		Date:        m.Date,
		Description: m.Description,
		ImageSrc:    m.ImageSrc,
		Color:       color,
	}, nil
}
