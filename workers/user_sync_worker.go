// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"grudge-match-system/models"
	"grudge-match-system/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfilesPath is the sync service endpoint listing changed profiles.
const ProfilesPath = "/api/v1/public/profiles"

// RemoteProfile matches one entry of the sync service response.
type RemoteProfile struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// SyncReport summarises one sync batch.
type SyncReport struct {
	Received int
	Upserted int
	Failed   int
}

// UserSyncWorker mirrors profile-service users into racer_users so opponents
// can be resolved locally.
type UserSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewUserSyncWorker(db *gorm.DB, baseURL, serviceToken string) *UserSyncWorker {
	return &UserSyncWorker{
		db:           db,
		interval:     time.Minute,
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *UserSyncWorker) Start(ctx context.Context) {
	utils.L().Info("[SYNC] starting racer user sync", zap.String("base_url", w.baseURL), zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *UserSyncWorker) run(ctx context.Context) {
	// backfill from the beginning of time
	if _, err := w.SyncBatch(ctx, time.Time{}); err != nil {
		utils.L().Warn("[SYNC] initial sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncBatch(ctx, w.lastSyncTime(ctx)); err != nil {
				utils.L().Warn("[SYNC] sync batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			utils.L().Info("[SYNC] racer user sync stopped")
			return
		}
	}
}

// lastSyncTime is the newest UpdatedAt already mirrored, or the epoch.
func (w *UserSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	var latest models.RacerUser
	err := w.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Find(&latest).Error
	if err != nil || latest.UpdatedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return latest.UpdatedAt
}

// SyncBatch fetches profiles changed since the given time and upserts them.
func (w *UserSyncWorker) SyncBatch(ctx context.Context, since time.Time) (SyncReport, error) {
	var report SyncReport

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return report, fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(ProfilesPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return report, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return report, fmt.Errorf("sync service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return report, fmt.Errorf("sync service returned %d: %s", resp.StatusCode, string(body))
	}

	var payload profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return report, fmt.Errorf("decode sync response: %w", err)
	}
	report.Received = len(payload.Users)
	if report.Received == 0 {
		utils.L().Debug("[SYNC] no profile changes", zap.Time("since", since))
		return report, nil
	}

	for _, remote := range payload.Users {
		if remote.ExternalID == "" {
			report.Failed++
			continue
		}
		local := models.RacerUser{
			ID:                uuid.NewString(),
			ExternalUserID:    remote.ExternalID,
			Username:          remote.Username,
			ProfilePictureURL: remote.ProfilePictureURL,
			AccountStatus:     remote.AccountStatus,
			CreatedAt:         remote.CreatedAt,
			UpdatedAt:         remote.UpdatedAt,
		}
		err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "profile_picture_url", "account_status", "updated_at",
			}),
		}).Create(&local).Error
		if err != nil {
			report.Failed++
			utils.L().Warn("[SYNC] upsert failed",
				zap.String("external_id", remote.ExternalID),
				zap.String("username", remote.Username),
				zap.Error(err),
			)
			continue
		}
		report.Upserted++
	}

	utils.L().Info("[SYNC] profiles synced",
		zap.Int("received", report.Received),
		zap.Int("upserted", report.Upserted),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
