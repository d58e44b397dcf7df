package recorder

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"InsiderSentinel/internal/model"
)

// RunRow is the runs table.
type RunRow struct {
	RunID        string    `gorm:"primaryKey;type:varchar(36)"`
	StartedAt    time.Time `gorm:"type:timestamptz;not null"`
	FinishedAt   time.Time `gorm:"type:timestamptz;not null"`
	Tickers      int
	Failed       int
	Trades       int
	Wins         int
	WinRate      float64
	AvgReturnPct float64
	Errors       string `gorm:"type:text"`
}

func (RunRow) TableName() string { return "runs" }

// TradeRow is the closed_trades table.
type TradeRow struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	RunID       string    `gorm:"type:varchar(36);not null;index"`
	Ticker      string    `gorm:"type:varchar(16);not null;index:idx_trades_ticker"`
	EntryDate   time.Time `gorm:"type:date;not null;index:idx_trades_ticker"`
	EntryPrice  float64
	ExitDate    time.Time `gorm:"type:date;not null"`
	ExitPrice   float64
	DaysHeld    int
	ReturnPct   float64
	ExitReason  string `gorm:"type:varchar(20)"`
	Tier        string `gorm:"type:varchar(12)"`
	Scenario    string `gorm:"type:varchar(20)"`
	TargetPrice float64
}

func (TradeRow) TableName() string { return "closed_trades" }

// TrendRow is the trend_segments table.
type TrendRow struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	RunID         string    `gorm:"type:varchar(36);not null;index:idx_trends_run"`
	Ticker        string    `gorm:"type:varchar(16);not null;index:idx_trends_run"`
	Type          string    `gorm:"type:varchar(4);not null"`
	StartDate     time.Time `gorm:"type:date;not null"`
	StartPrice    float64
	EndDate       time.Time `gorm:"type:date;not null"`
	EndPrice      float64
	PeakPrice     float64
	Duration      int
	ChangePct     float64
	InsiderEvents int
}

func (TrendRow) TableName() string { return "trend_segments" }

// PostgresRecorder persists to PostgreSQL through GORM.
type PostgresRecorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewPostgresRecorder connects with dsn and auto-migrates the tables.
func NewPostgresRecorder(dsn string, log *zap.Logger) (*PostgresRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&RunRow{}, &TradeRow{}, &TrendRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("postgres recorder opened")
	return &PostgresRecorder{db: db, log: log}, nil
}

func (r *PostgresRecorder) RecordRun(run *model.RunSummary) error {
	return r.db.Save(&RunRow{
		RunID:        run.RunID,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		Tickers:      run.Tickers,
		Failed:       run.Failed,
		Trades:       run.Trades,
		Wins:         run.Wins,
		WinRate:      run.WinRate,
		AvgReturnPct: run.AvgReturnPct,
		Errors:       strings.Join(run.Errors, "\n"),
	}).Error
}

func (r *PostgresRecorder) RecordTrades(runID string, trades []model.ClosedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([]TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = TradeRow{
			RunID:       runID,
			Ticker:      t.Ticker,
			EntryDate:   t.EntryDate,
			EntryPrice:  t.EntryPrice,
			ExitDate:    t.ExitDate,
			ExitPrice:   t.ExitPrice,
			DaysHeld:    t.DaysHeld,
			ReturnPct:   t.ReturnPct,
			ExitReason:  string(t.Reason),
			Tier:        string(t.Tier),
			Scenario:    string(t.Scenario),
			TargetPrice: t.TargetPrice,
		}
	}
	return r.db.CreateInBatches(rows, 200).Error
}

func (r *PostgresRecorder) RecordTrends(runID, symbol string, trends []model.CompletedTrendEvent) error {
	if len(trends) == 0 {
		return nil
	}
	rows := make([]TrendRow, len(trends))
	for i, ev := range trends {
		rows[i] = TrendRow{
			RunID:         runID,
			Ticker:        symbol,
			Type:          string(ev.Type),
			StartDate:     ev.StartDate,
			StartPrice:    ev.StartPrice,
			EndDate:       ev.EndDate,
			EndPrice:      ev.EndPrice,
			PeakPrice:     ev.PeakPrice,
			Duration:      ev.Duration,
			ChangePct:     ev.ChangePct,
			InsiderEvents: len(ev.Events),
		}
	}
	return r.db.CreateInBatches(rows, 200).Error
}

func (r *PostgresRecorder) Close() error {
	r.log.Info("closing postgres recorder")
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
