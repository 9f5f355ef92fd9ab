package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// tradeEventModel is the SQLite row backing one TradeEvent.
type tradeEventModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TraceID   string    `gorm:"index;size:64"`
	Timestamp time.Time `gorm:"index"`
	Symbol    string    `gorm:"index;size:32"`
	Action    string    `gorm:"size:16"`
	Side      string    `gorm:"size:8"`
	Quantity  float64
	Price     float64
	Notional  float64
	Reason    string `gorm:"size:256"`
	PnL       float64
	DailyPnL  float64
	Votes     datatypes.JSON
	CreatedAt time.Time
}

func (tradeEventModel) TableName() string { return "trade_events" }

// Store keeps the trade event stream in a GORM-backed SQLite database.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade store path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening trade store failed: %w", err)
	}
	if err := db.AutoMigrate(&tradeEventModel{}); err != nil {
		return nil, fmt.Errorf("migrating trade store failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, ev TradeEvent) error {
	row := tradeEventModel{
		TraceID:   ev.TraceID,
		Timestamp: ev.Timestamp,
		Symbol:    ev.Symbol,
		Action:    ev.Action,
		Side:      ev.Side,
		Quantity:  ev.Quantity,
		Price:     ev.Price,
		Notional:  ev.Notional,
		Reason:    ev.Reason,
		PnL:       ev.PnL,
		DailyPnL:  ev.DailyPnL,
	}
	if len(ev.Votes) > 0 {
		row.Votes = datatypes.JSON(ev.Votes)
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// ListEvents returns recorded events in time order, oldest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]TradeEvent, error) {
	q := s.db.WithContext(ctx).Model(&tradeEventModel{}).Order("timestamp asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []tradeEventModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]TradeEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, TradeEvent{
			TraceID:   r.TraceID,
			Timestamp: r.Timestamp,
			Symbol:    r.Symbol,
			Action:    r.Action,
			Side:      r.Side,
			Quantity:  r.Quantity,
			Price:     r.Price,
			Notional:  r.Notional,
			Reason:    r.Reason,
			PnL:       r.PnL,
			DailyPnL:  r.DailyPnL,
			Votes:     []byte(r.Votes),
		})
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
