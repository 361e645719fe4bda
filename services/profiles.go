package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"faction-wars-backend/apperrors"
	"faction-wars-backend/models"
	"faction-wars-backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxUsernameLength = 32

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// ProfileView bundles a profile with the wallet's current faction for the
// profile card.
type ProfileView struct {
	Profile *models.Profile `json:"profile"`
	Standing struct {
		BadgesCount int `json:"badges_count"`
	} `json:"standing"`
	Faction *FactionInfo `json:"faction"`
}

func (s *ProfileService) Get(wallet string) (*ProfileView, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, apperrors.Validationf("missing wallet")
	}

	view := &ProfileView{}

	var profile models.Profile
	err := s.DB.First(&profile, "wallet = ?", wallet).Error
	if err == nil {
		view.Profile = &profile
		view.Standing.BadgesCount = profile.BadgesCount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "profile lookup failed")
	}

	var walletRow models.Wallet
	err = s.DB.Preload("Faction").First(&walletRow, "address = ?", wallet).Error
	if err == nil && walletRow.Faction != nil {
		view.Faction = &FactionInfo{Slug: walletRow.Faction.Slug, Name: walletRow.Faction.Name, Color: walletRow.Faction.Color}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Dependency(err, "wallet lookup failed")
	}

	return view, nil
}

// ProfileUpdate carries optional fields: nil means "leave unchanged", a
// pointer to an empty string clears the value.
type ProfileUpdate struct {
	Username  *string
	AvatarURL *string
}

func (s *ProfileService) Upsert(wallet string, update ProfileUpdate) (*models.Profile, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, apperrors.Validationf("missing wallet")
	}

	assignments := map[string]any{}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if len(username) > maxUsernameLength {
			username = username[:maxUsernameLength]
		}
		if username == "" {
			assignments["username"] = nil
		} else {
			assignments["username"] = username
		}
	}
	if update.AvatarURL != nil {
		avatarURL := strings.TrimSpace(*update.AvatarURL)
		if avatarURL == "" {
			assignments["avatar_url"] = nil
		} else {
			assignments["avatar_url"] = avatarURL
		}
	}

	row := models.Profile{Wallet: wallet}
	if username, ok := assignments["username"].(string); ok {
		row.Username = &username
	}
	if avatarURL, ok := assignments["avatar_url"].(string); ok {
		row.AvatarURL = &avatarURL
	}

	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "wallet"}}, DoNothing: true}
	if len(assignments) > 0 {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.Assignments(assignments),
		}
	}
	if err := s.DB.Clauses(conflict).Create(&row).Error; err != nil {
		return nil, apperrors.Dependency(err, "profile upsert failed")
	}

	var profile models.Profile
	if err := s.DB.First(&profile, "wallet = ?", wallet).Error; err != nil {
		return nil, apperrors.Dependency(err, "profile readback failed")
	}
	return &profile, nil
}

// UploadAvatar stores the image in R2 and points the profile at the public URL.
func (s *ProfileService) UploadAvatar(wallet string, file *multipart.FileHeader) (*models.Profile, error) {
	wallet = NormalizeWallet(wallet)
	if wallet == "" {
		return nil, apperrors.Validationf("missing wallet")
	}
	if file == nil || file.Size == 0 {
		return nil, apperrors.Validationf("missing file")
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("avatars/%s/%d%s", wallet, time.Now().UnixMilli(), ext)

	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		return nil, apperrors.Dependency(err, "avatar upload failed")
	}

	return s.Upsert(wallet, ProfileUpdate{AvatarURL: &url})
}
