package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockPool(t *testing.T) (*ConnectionPool, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	// gorm.Open 会先 Ping 一次
	mock.ExpectPing()
	dialector := gormmysql.New(gormmysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	pool, err := NewConnectionPoolWithDialector(dialector, logger.Silent)
	require.NoError(t, err)
	return pool, mock
}

func TestHealthCheck(t *testing.T) {
	pool, mock := setupMockPool(t)

	mock.ExpectPing()
	assert.NoError(t, pool.HealthCheck())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, pool.HealthCheck())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_Commit(t *testing.T) {
	pool, mock := setupMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE owners SET remark").
		WithArgs("已核实", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pool.WithTransaction(func(tx *gorm.DB) error {
		return tx.Exec("UPDATE owners SET remark = ? WHERE id = ?", "已核实", 1).Error
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	pool, mock := setupMockPool(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := pool.WithTransaction(func(tx *gorm.DB) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateEntry(t *testing.T) {
	assert.False(t, IsDuplicateEntry(nil))
	assert.False(t, IsDuplicateEntry(errors.New("other")))
	assert.True(t, IsDuplicateEntry(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateEntry(fmt.Errorf("create owner: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateEntry(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsDuplicateEntry(&mysql.MySQLError{Number: 1452, Message: "foreign key"}))
}
