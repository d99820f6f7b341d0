// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db"
	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestSecret signs tokens created by CreateTestAuthToken
const TestSecret = "test-secret-key-for-testing-only"

// TestSetup contains utilities for testing
type TestSetup struct {
	Router   *gin.Engine
	DB       *db.Database
	Logger   *utils.Logger
	Config   *config.Config
	Cleanup  func()
	Requires *require.Assertions
}

// NewTestSetup creates a test setup backed by a private in-memory SQLite
// database, so parallel packages and subtests never share rows.
func NewTestSetup(t require.TestingT) *TestSetup {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	zapLogger := zap.NewNop()
	log := &utils.Logger{Logger: zapLogger}

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		Simulator: config.SimulatorConfig{
			Interval:       100,
			Seed:           42,
			FrameBuffer:    10,
			RetentionHours: 72,
			Persist:        true,
		},
		JWT: config.JWTConfig{
			Secret:          TestSecret,
			ExpirationHours: 1,
			Issuer:          "sensorhub-test",
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}

	gormDB, err := gorm.Open(sqlite.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		require.FailNow(t, "Failed to create in-memory database", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		require.FailNow(t, "Failed to get sql.DB", err)
	}
	sqlDB.SetMaxOpenConns(1)

	database := db.Wrap(gormDB, &cfg.Database, log)

	router := gin.New()
	router.Use(gin.Recovery())

	cleanup := func() {
		_ = sqlDB.Close()
	}

	return &TestSetup{
		Router:   router,
		DB:       database,
		Logger:   log,
		Config:   cfg,
		Cleanup:  cleanup,
		Requires: require.New(t),
	}
}

// Migrate creates the telemetry tables
func (ts *TestSetup) Migrate() {
	ts.Requires.NoError(ts.DB.AutoMigrate(), "Failed to migrate database")
}

// ExecuteRequest executes a test request and returns the response
func (ts *TestSetup) ExecuteRequest(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	var err error

	if body != nil {
		reqBody, err = json.Marshal(body)
		ts.Requires.NoError(err, "Failed to marshal request body")
	}

	req, err := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	ts.Requires.NoError(err, "Failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp := httptest.NewRecorder()
	ts.Router.ServeHTTP(resp, req)

	return resp
}

// ParseResponse parses the JSON response into the provided struct
func (ts *TestSetup) ParseResponse(response *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(response.Body.Bytes(), target)
	ts.Requires.NoError(err, "Failed to parse response body: %s", response.Body.String())
}

// CreateTestAuthToken creates a JWT token for the control routes
func (ts *TestSetup) CreateTestAuthToken(operator string, role models.Role) string {
	claims := &models.Claims{
		Operator: operator,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    ts.Config.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(ts.Config.JWT.Secret))
	ts.Requires.NoError(err, "Failed to sign JWT token")

	return tokenString
}

// BearerHeader returns an Authorization header map for token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
