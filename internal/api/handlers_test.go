package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealradar/config"
	"dealradar/internal/database"
	"dealradar/internal/ledger"
	"dealradar/internal/models"
)

type fakeTrigger struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTrigger) RunScan() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setupTestRouter(t *testing.T) (*gin.Engine, *database.Database, *ledger.Ledger, *fakeTrigger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	dedup, err := ledger.NewLedger(db.GetDB())
	require.NoError(t, err)

	logger := logrus.New()
	trigger := &fakeTrigger{}
	router := SetupRouter(NewHandler(db, dedup, trigger, logger))
	return router, db, dedup, trigger
}

func TestGetStatus(t *testing.T) {
	router, db, dedup, _ := setupTestRouter(t)

	require.NoError(t, dedup.MarkSeen("abc", ledger.Metadata{Reason: models.ReasonScrape}))
	require.NoError(t, db.UpsertMarketStats(models.MarketStatsRow{
		GroupKey:    "bmw | 320d | diesel | 2011–2015 | 80–150k",
		Brand:       "bmw",
		Model:       "320d",
		SampleCount: 12,
		PriceMedian: 45000,
		UpdatedAt:   time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["seen_ads"])
	assert.Equal(t, float64(1), body["market_groups"])
}

func TestTriggerScan(t *testing.T) {
	router, _, _, trigger := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool { return trigger.count() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestGetGroupStats(t *testing.T) {
	router, db, _, _ := setupTestRouter(t)

	key := "toyota | corolla | petrol | 2016–2020 | 80–150k"
	require.NoError(t, db.UpsertMarketStats(models.MarketStatsRow{
		GroupKey:    key,
		Brand:       "toyota",
		Model:       "corolla",
		SampleCount: 8,
		PriceMedian: 62000,
		UpdatedAt:   time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats?key="+url.QueryEscape(key), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var row models.MarketStatsRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, key, row.GroupKey)
	assert.Equal(t, 62000.0, row.PriceMedian)
}

func TestGetGroupStatsNotFound(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats?key=missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGroupStatsMissingKey(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndGetHardCaps(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)
	t.Cleanup(func() { config.SetHardCaps(map[string]float64{}) })

	payload := `{"bmw 320d": 41000, "default": 150000}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/hard-caps", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/hard-caps", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rules map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	assert.Equal(t, 41000.0, rules["bmw 320d"])
	assert.Equal(t, 150000.0, rules["default"])
}
