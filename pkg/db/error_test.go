package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("boom")))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: payouts.actor_id")))
}

type widget struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

func TestNewTestIsolatesDatabases(t *testing.T) {
	first, err := NewTest(&widget{})
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	second, err := NewTest(&widget{})
	if err != nil {
		t.Fatalf("open second: %v", err)
	}

	if err := first.Create(&widget{ID: 1, Name: "a"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var count int64
	second.Model(&widget{}).Count(&count)
	assert.Equal(t, int64(0), count)

	err = first.Create(&widget{ID: 2, Name: "a"}).Error
	assert.True(t, IsDuplicateKeyErr(err))
}
