package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-users/internal/logger"
	"github.com/sbilibin2017/gw-users/internal/repositories"
	"github.com/sbilibin2017/gw-users/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// configKeys lists every environment variable parseConfig reads.
var configKeys = []string{
	"APP_HOST", "APP_PORT", "APP_LOG_LEVEL", "APP_LEGACY_NOT_FOUND",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"POSTGRES_MAX_OPEN_CONNS", "POSTGRES_MAX_IDLE_CONNS",
	"REDIS_HOST", "REDIS_PORT", "REDIS_DB", "REDIS_PASSWORD",
	"REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_EXP_SECOND",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
}

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv unsets the config variables for the duration of the test.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	assert.Equal(t, "config.env", parseFlags())
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	assert.Equal(t, "myconfig.env", parseFlags())
}

func TestPrintBuildInfo_Output(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2026-10-18"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	assert.Equal(t, "Version: v1.0.0\nCommit: abcd1234\nBuild: 2026-10-18\n", buf.String())
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, config{
		AppHost:           "localhost",
		AppPort:           "8080",
		LogLevel:          "info",
		PGHost:            "localhost",
		PGPort:            5432,
		PGUser:            "user",
		PGPassword:        "password",
		PGDB:              "database",
		PGMaxOpenConns:    3,
		PGMaxIdleConns:    3,
		RedisPort:         6379,
		RedisPoolSize:     10,
		RedisMinIdleConns: 2,
		RedisExpSecond:    60,
		KafkaTopic:        "users",
	}, cfg)
}

func TestParseConfig_CustomEnv(t *testing.T) {
	resetEnv(t)
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_LEGACY_NOT_FOUND", "true")

	t.Setenv("POSTGRES_HOST", "pg.example.com")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "admin")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "mydb")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "5")
	t.Setenv("POSTGRES_MAX_IDLE_CONNS", "1")

	t.Setenv("REDIS_HOST", "redis.example.com")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_PASSWORD", "redispass")
	t.Setenv("REDIS_POOL_SIZE", "15")
	t.Setenv("REDIS_MIN_IDLE_CONNS", "5")
	t.Setenv("REDIS_EXP_SECOND", "120")

	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("KAFKA_TOPIC", "user-events")

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, config{
		AppHost:           "127.0.0.1",
		AppPort:           "9090",
		LogLevel:          "debug",
		LegacyNotFound:    true,
		PGHost:            "pg.example.com",
		PGPort:            5433,
		PGUser:            "admin",
		PGPassword:        "secret",
		PGDB:              "mydb",
		PGMaxOpenConns:    5,
		PGMaxIdleConns:    1,
		RedisHost:         "redis.example.com",
		RedisPort:         6380,
		RedisDB:           2,
		RedisPassword:     "redispass",
		RedisPoolSize:     15,
		RedisMinIdleConns: 5,
		RedisExpSecond:    120,
		KafkaBrokers:      []string{"kafka-1:9092", "kafka-2:9092"},
		KafkaTopic:        "user-events",
	}, cfg)
}

func TestParseConfig_DotenvFile(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "config.env")
	content := "APP_PORT=9191\nPOSTGRES_DB=users\nKAFKA_BROKERS=localhost:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := parseConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.AppPort)
	assert.Equal(t, "users", cfg.PGDB)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost", cfg.AppHost)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POSTGRES_PORT", "abc"},
		{"POSTGRES_MAX_OPEN_CONNS", "three"},
		{"REDIS_EXP_SECOND", "1m"},
		{"APP_LEGACY_NOT_FOUND", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := parseConfig("nonexistent.env")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

// Router tests run the whole stack against sqlmock.

const (
	listQueryPattern   = `SELECT id, name\s+FROM "User"`
	getQueryPattern    = `SELECT id, name\s+FROM "User"\s+WHERE id = \$1\s+LIMIT 1`
	insertQueryPattern = `INSERT INTO "User" \(id, name\)\s+VALUES \(\$1, \$2\)`
	updateQueryPattern = `UPDATE "User"\s+SET name = \$1\s+WHERE id = \$2`
	deleteQueryPattern = `DELETE FROM "User"\s+WHERE id = \$1`
)

func newTestRouter(t *testing.T, legacyNotFound bool) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	svc := services.NewUserService(
		repositories.NewUserReadRepository(sqlxDB),
		repositories.NewUserWriteRepository(sqlxDB),
		nil,
		nil,
	)

	return newRouter(svc, legacyNotFound), mock
}

func doRequest(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_CreateUser(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectExec(insertQueryPattern).
		WithArgs(sqlmock.AnyArg(), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := doRequest(router, http.MethodPost, "/users/", `{"id": "ignored", "name": "alice"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Regexp(t, `^alice\d{14}$`, got["id"])
	assert.Equal(t, "alice", got["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_CreateUser_Collision(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectExec(insertQueryPattern).
		WithArgs(sqlmock.AnyArg(), "alice").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	rr := doRequest(router, http.MethodPost, "/users", `{"name": "alice"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error": "user already exists", "code": "USER_ALREADY_EXISTS"}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_CreateUser_BadBody(t *testing.T) {
	router, mock := newTestRouter(t, false)

	rr := doRequest(router, http.MethodPost, "/users/", `{"name": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, http.MethodPost, "/users/", `{"id": "x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_ListUsers(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("alice18102026153045", "alice"))

	rr := doRequest(router, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/users/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id": "alice18102026153045", "name": "alice"}]`, rr.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_GetUser(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectQuery(getQueryPattern).
		WithArgs("alice18102026153045").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("alice18102026153045", "alice"))
	mock.ExpectQuery(getQueryPattern).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	rr := doRequest(router, http.MethodGet, "/users/alice18102026153045", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id": "alice18102026153045", "name": "alice"}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/users/missing/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error": "user not found", "code": "USER_NOT_FOUND"}`, rr.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_UpdateUser(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectExec(updateQueryPattern).
		WithArgs("bob", "alice18102026153045").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateQueryPattern).
		WithArgs("bob", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := doRequest(router, http.MethodPut, "/users/alice18102026153045/", `{"id": "other", "name": "bob"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id": "alice18102026153045", "name": "bob"}`, rr.Body.String())

	rr = doRequest(router, http.MethodPut, "/users/missing", `{"name": "bob"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_DeleteUser(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectExec(deleteQueryPattern).
		WithArgs("alice18102026153045").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQueryPattern).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := doRequest(router, http.MethodDelete, "/users/alice18102026153045/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message": "User with id: alice18102026153045 deleted successfully!"}`, rr.Body.String())

	rr = doRequest(router, http.MethodDelete, "/users/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_LegacyNotFound(t *testing.T) {
	router, mock := newTestRouter(t, true)

	mock.ExpectQuery(getQueryPattern).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(updateQueryPattern).
		WithArgs("bob", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQueryPattern).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := doRequest(router, http.MethodGet, "/users/missing", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `null`, rr.Body.String())

	rr = doRequest(router, http.MethodPut, "/users/missing/", `{"id": "missing", "name": "bob"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id": "missing", "name": "bob"}`, rr.Body.String())

	rr = doRequest(router, http.MethodDelete, "/users/missing/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message": "User with id: missing deleted successfully!"}`, rr.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_StorageFault(t *testing.T) {
	router, mock := newTestRouter(t, false)

	mock.ExpectQuery(listQueryPattern).WillReturnError(fmt.Errorf("connection reset"))

	rr := doRequest(router, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error": "internal server error", "code": "INTERNAL_ERROR"}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurePool_DefaultCap(t *testing.T) {
	resetEnv(t)
	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db := sqlx.NewDb(sqlDB, "sqlmock")

	configurePool(db, cfg)
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)

	ctx := context.Background()
	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	assert.Equal(t, 3, db.Stats().InUse)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = db.Conn(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a fourth connection must wait for a free one")

	for _, conn := range conns {
		conn.Close()
	}
}

func TestNewKafkaWriter(t *testing.T) {
	w := newKafkaWriter(config{KafkaBrokers: []string{"127.0.0.1:9092"}, KafkaTopic: "users"})

	assert.Equal(t, "users", w.Topic)
	assert.True(t, w.Async)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.NotNil(t, w.Completion)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}

func TestNewKafkaWriter_UnreachableBrokerReturnsQuickly(t *testing.T) {
	w := newKafkaWriter(config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "users"})
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_ = w.WriteMessages(ctx, kafka.Message{Key: []byte("alice1"), Value: []byte(`{}`)})
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestLogKafkaCompletion(t *testing.T) {
	originalLog := logger.Log
	defer func() { logger.Log = originalLog }()

	core, logs := observer.New(zapcore.ErrorLevel)
	logger.Log = zap.New(core).Sugar()

	msgs := []kafka.Message{{Key: []byte("alice1")}, {Key: []byte("bob1")}}

	logKafkaCompletion(msgs, nil)
	assert.Zero(t, logs.Len())

	logKafkaCompletion(msgs, errors.New("broker down"))
	entries := logs.FilterMessage("failed to deliver user events").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["count"])
}

func TestRun_InvalidLogLevel(t *testing.T) {
	err := run(context.Background(), config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, config{
		AppHost:        "127.0.0.1",
		AppPort:        "0",
		LogLevel:       "error",
		PGHost:         "127.0.0.1",
		PGPort:         1,
		PGUser:         "user",
		PGPassword:     "password",
		PGDB:           "testdb",
		PGMaxOpenConns: 3,
		PGMaxIdleConns: 3,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostgreSQL connection error")
}

// ------------------ Full integration test ------------------
func TestRun_Success(t *testing.T) {
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "user"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: pgReq, Started: true})
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(runCtx, config{
			AppHost:        "127.0.0.1",
			AppPort:        "8086",
			LogLevel:       "debug",
			PGHost:         pgHost,
			PGPort:         pgPort.Int(),
			PGUser:         "user",
			PGPassword:     "password",
			PGDB:           "testdb",
			PGMaxOpenConns: 3,
			PGMaxIdleConns: 3,
			KafkaTopic:     "users",
		})
	}()

	baseURL := "http://127.0.0.1:8086/users"
	client := &http.Client{Timeout: 2 * time.Second}

	require.Eventually(t, func() bool {
		resp, err := client.Get(baseURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 15*time.Second, 200*time.Millisecond)

	resp, err := client.Post(baseURL+"/", "application/json", strings.NewReader(`{"name": "alice"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Regexp(t, `^alice\d{14}$`, created["id"])

	resp, err = client.Get(baseURL + "/" + created["id"])
	require.NoError(t, err)
	var fetched map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	assert.Equal(t, created, fetched)

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/"+created["id"]+"/", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(baseURL + "/" + created["id"])
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()

	select {
	case <-time.After(15 * time.Second):
		t.Fatal("run did not stop after cancellation")
	case err := <-errCh:
		assert.NoError(t, err)
	}
}
