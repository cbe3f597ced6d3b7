// Package journal keeps a SQLite record of the messages the gateway
// received and sent.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"i4.energy/across/valvegw/modem"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := db.AutoMigrate(&Received{}, &Sent{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("Journal opened", "path", path)
	return &Store{db: db, logger: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RecordReceived(ctx context.Context, sms modem.SMS, command string, applied bool) error {
	row := Received{
		Slot:    sms.Index,
		Sender:  sms.Sender,
		Stamp:   sms.Time,
		Body:    sms.Text,
		Command: command,
		Applied: applied,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save received SMS: %w", err)
	}
	return nil
}

func (s *Store) RecordSent(ctx context.Context, number, body string, ref int, st modem.Status) error {
	row := Sent{Number: number, Body: body, Ref: ref, Status: st.String()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save sent SMS: %w", err)
	}
	return nil
}

// ReceivedMessages returns up to limit received messages, newest first.
func (s *Store) ReceivedMessages(ctx context.Context, limit int) ([]Received, error) {
	var rows []Received
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query received SMS: %w", err)
	}
	return rows, nil
}

// SentMessages returns up to limit sent messages, newest first.
func (s *Store) SentMessages(ctx context.Context, limit int) ([]Sent, error) {
	var rows []Sent
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sent SMS: %w", err)
	}
	return rows, nil
}
