package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestGetTableColumns(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)

		err = db.Exec("CREATE TABLE runs (id INTEGER PRIMARY KEY, kind TEXT NOT NULL, payload BLOB)").Error
		require.NoError(t, err)

		columns, err := GetTableColumns(db, "runs")
		require.NoError(t, err)
		require.Len(t, columns, 3)

		colMap := make(map[string]ColumnInfo)
		for _, col := range columns {
			colMap[col.Field] = col
		}

		assert.Equal(t, "integer", colMap["id"].Type)
		assert.Equal(t, "PRI", colMap["id"].Key)
		assert.Equal(t, "NO", colMap["kind"].Null)
		assert.Equal(t, "blob", colMap["payload"].Type)

		// PRAGMA table_info returns nothing for an unknown table
		cols, err := GetTableColumns(db, "non_existent")
		assert.NoError(t, err)
		assert.Empty(t, cols)
	})

	t.Run("MySQL", func(t *testing.T) {
		db, mock := setupMockDB(t)

		rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("ID", "BIGINT UNSIGNED", "NO", "PRI", nil, "auto_increment").
			AddRow("Payload", "LONGBLOB", "YES", "", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `runs`").WillReturnRows(rows)

		columns, err := GetTableColumns(db, "runs")
		require.NoError(t, err)
		require.Len(t, columns, 2)
		assert.Equal(t, "id", columns[0].Field)
		assert.Equal(t, "bigint unsigned", columns[0].Type)
		assert.Equal(t, "longblob", columns[1].Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE runs (id INTEGER PRIMARY KEY, kind TEXT)").Error)

	missing, err := MissingColumns(db, "runs", []string{"id", "Kind", "payload"})
	require.NoError(t, err)
	assert.Equal(t, []string{"payload"}, missing)
}
