// services/users.go
package services

import (
	"context"
	"strings"

	"grudge-match-system/models"

	"gorm.io/gorm"
)

// UserService answers identity questions from the local racer_users mirror.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// UserSummary is the public view of a mirrored racer.
type UserSummary struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Exists reports whether userID resolves to a known, non-deleted racer.
func (s *UserService) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.RacerUser{}).
		Where("external_user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Usernames maps user ids to usernames; unknown ids are simply absent.
func (s *UserService) Usernames(ctx context.Context, userIDs ...string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []models.RacerUser
	if err := s.DB.WithContext(ctx).
		Where("external_user_id IN ?", userIDs).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ExternalUserID] = u.Username
	}
	return out, nil
}

// Search finds racers by username for the challenge picker.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]UserSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.WithContext(ctx).Model(&models.RacerUser{}).Order("username ASC").Limit(limit)
	if q := strings.TrimSpace(query); q != "" {
		db = db.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var users []models.RacerUser
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{UserID: u.ExternalUserID, Username: u.Username}
	}
	return res, nil
}
