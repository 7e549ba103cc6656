package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"grudge-match-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

func newSyncDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:workers_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.RacerUser{}))
	return db
}

func TestSyncBatchUpsertsProfiles(t *testing.T) {
	db := newSyncDB(t)
	updated := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	var gotSince, gotToken string
	username := "quartermile_queen"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProfilesPath, r.URL.Path)
		gotSince = r.URL.Query().Get("since")
		gotToken = r.Header.Get("X-Service-Token")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []RemoteProfile{
				{ExternalID: "u-1", Username: username, AccountStatus: "active", UpdatedAt: updated},
				{ExternalID: "u-2", Username: "slowpoke", AccountStatus: "active", UpdatedAt: updated},
				{ExternalID: "", Username: "broken"},
			},
		})
	}))
	defer srv.Close()

	w := NewUserSyncWorker(db, srv.URL, "svc-token")
	report, err := w.SyncBatch(context.Background(), time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Received: 3, Upserted: 2, Failed: 1}, report)
	assert.Equal(t, "svc-token", gotToken)
	assert.Equal(t, "1970-01-01T00:00:00Z", gotSince)

	// a rename on the next batch updates the existing row
	username = "qm_queen"
	_, err = w.SyncBatch(context.Background(), updated)
	require.NoError(t, err)

	var users []models.RacerUser
	require.NoError(t, db.Order("external_user_id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, "qm_queen", users[0].Username)
	assert.Equal(t, "slowpoke", users[1].Username)

	assert.True(t, updated.Equal(w.lastSyncTime(context.Background())))
}

func TestSyncBatchNon200(t *testing.T) {
	db := newSyncDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewUserSyncWorker(db, srv.URL, "bad").SyncBatch(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestLastSyncTimeEmptyTable(t *testing.T) {
	db := newSyncDB(t)
	w := NewUserSyncWorker(db, "http://127.0.0.1:1", "t")
	assert.Equal(t, time.Unix(0, 0), w.lastSyncTime(context.Background()))
}
