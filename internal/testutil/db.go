// Package testutil provides a sqlite-backed ledger and seed helpers for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"pinvault/internal/database"
	"pinvault/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated sqlite database in the test's temp dir. The pool is capped at
// one connection so concurrent transactions serialize the way row locks would on MySQL.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.Open(sqlite.Open(path + "?_busy_timeout=5000&_foreign_keys=on"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

var serialSeq atomic.Int64

// SeedCards inserts n unused cards of cardType priced at price.
func SeedCards(t *testing.T, db *gorm.DB, cardType string, n int, price int64) []models.ScratchCard {
	t.Helper()
	cards := make([]models.ScratchCard, n)
	for i := range cards {
		seq := serialSeq.Add(1)
		cards[i] = models.ScratchCard{
			Type:         cardType,
			Pin:          fmt.Sprintf("%s-PIN-%06d", cardType, seq),
			SerialNumber: fmt.Sprintf("%s-SN-%06d", cardType, seq),
			Price:        price,
		}
	}
	require.NoError(t, db.Create(&cards).Error)
	return cards
}

func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
