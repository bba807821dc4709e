package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dbsmedya/starsift/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		expected string
	}{
		{
			name: "basic DSN",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "stars",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/stars?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN without database",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				TLS:      "preferred",
			},
			expected: "root:secret@tcp(localhost:3306)/?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "secret",
				Database: "stars",
				TLS:      "disable",
			},
			expected: "root:secret@tcp(localhost:3306)/stars?parseTime=true&loc=UTC&tls=false",
		},
		{
			name: "DSN with TLS required",
			cfg: &config.DatabaseConfig{
				Host:     "db.example",
				Port:     3307,
				User:     "admin",
				Password: "p@ss!w0rd#123",
				Database: "stars",
				TLS:      "required",
			},
			expected: "admin:p@ss!w0rd#123@tcp(db.example:3307)/stars?parseTime=true&loc=UTC&tls=true",
		},
		{
			name: "Empty password and TLS",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "stars",
			},
			expected: "root:@tcp(localhost:3306)/stars?parseTime=true&loc=UTC&tls=preferred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func testDBConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:               "localhost",
		Port:               3306,
		User:               "root",
		Database:           "stars",
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}
}

func TestNewManager(t *testing.T) {
	cfg := testDBConfig()
	manager := NewManager(cfg)
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.config != cfg {
		t.Error("manager.config should point to provided config")
	}
	if manager.DB != nil {
		t.Error("DB should be nil before Connect()")
	}
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	if err := NewManager(testDBConfig()).Close(); err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
}

func TestManagerPingWithoutConnect(t *testing.T) {
	if err := NewManager(testDBConfig()).Ping(context.Background()); err == nil {
		t.Error("Ping() should fail before Connect()")
	}
}

func TestConnectNilConfig(t *testing.T) {
	if err := NewManager(nil).Connect(context.Background()); err == nil {
		t.Error("Connect() should fail with nil config")
	}
}

func TestConnect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mock.ExpectPing()
	mock.ExpectPing()
	mock.ExpectClose()

	manager := NewManager(testDBConfig())
	var gotDSN string
	manager.open = func(dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	}

	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if !strings.HasPrefix(gotDSN, "root:@tcp(localhost:3306)/stars?") {
		t.Errorf("unexpected DSN %q", gotDSN)
	}
	if err := manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
	if err := manager.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if manager.DB != nil {
		t.Error("DB should be nil after Close()")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	manager := NewManager(testDBConfig())
	manager.initialBackoff = time.Millisecond
	attempts := 0
	manager.open = func(string) (*sql.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return db, nil
	}

	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestConnectGivesUp(t *testing.T) {
	manager := NewManager(testDBConfig())
	manager.initialBackoff = time.Millisecond
	attempts := 0
	manager.open = func(string) (*sql.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	err := manager.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() should fail")
	}
	if !strings.Contains(err.Error(), "failed after 3 retries") {
		t.Errorf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestConnectPingFailureClosesPool(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mock.ExpectPing().WillReturnError(errors.New("access denied"))
	mock.ExpectClose()

	manager := NewManager(testDBConfig())
	manager.maxRetries = 1
	manager.open = func(string) (*sql.DB, error) { return db, nil }

	err = manager.Connect(context.Background())
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected ping error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestConnectCanceledDuringBackoff(t *testing.T) {
	manager := NewManager(testDBConfig())
	manager.initialBackoff = time.Hour
	manager.open = func(string) (*sql.DB, error) { return nil, errors.New("connection refused") }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := manager.Connect(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
