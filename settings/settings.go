package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"clipshare/db"
	"clipshare/middleware"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

const (
	KeySaveVideo         = "save_video"
	KeyProfilePictureURL = "profile_picture_url"
)

var ErrInvalidSetting = errors.New("invalid setting")

// UserSettings is stored at settings/{username}.
type UserSettings struct {
	SaveVideo         bool   `json:"save_video" bson:"save_video"`
	ProfilePictureURL string `json:"profile_picture_url" bson:"profile_picture_url"`
}

type Service struct {
	store db.Store
	log   *logrus.Entry
}

func NewService(store db.Store, log *logrus.Entry) *Service {
	return &Service{store: store, log: log}
}

func settingsPath(username string) string {
	return db.JoinPath("settings", username)
}

// Get returns the user's settings, falling back to defaults for a user
// who never saved any.
func (s *Service) Get(ctx context.Context, username string) (UserSettings, error) {
	var us UserSettings
	if _, err := s.store.Read(ctx, settingsPath(username), &us); err != nil {
		return UserSettings{}, fmt.Errorf("read settings %s: %w", username, err)
	}
	return us, nil
}

// Set writes one key after checking its value type.
func (s *Service) Set(ctx context.Context, username, key string, value any) error {
	switch key {
	case KeySaveVideo:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects a boolean", ErrInvalidSetting, key)
		}
	case KeyProfilePictureURL:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects a string", ErrInvalidSetting, key)
		}
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}

	if err := s.store.Write(ctx, db.JoinPath("settings", username, key), value); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Fetch user settings as an array (frontend expects this format)
func (s *Service) GetUserSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	us, err := s.Get(r.Context(), username)
	if err != nil {
		s.log.WithError(err).Error("get settings failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, []map[string]any{
		{"type": KeySaveVideo, "value": us.SaveVideo, "description": "Save recorded videos to the device"},
		{"type": KeyProfilePictureURL, "value": us.ProfilePictureURL, "description": "Current profile picture"},
	})
}

// Update a specific user setting
func (s *Service) UpdateUserSetting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	settingType := ps.ByName("type")

	var update struct {
		Value any `json:"value"`
	}
	if err := utils.DecodeJSON(w, r, &update, 1<<12); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	err := s.Set(r.Context(), username, settingType, update.Value)
	if errors.Is(err, ErrInvalidSetting) {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.WithError(err).Error("update setting failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Setting updated successfully",
		"type":    settingType,
		"value":   update.Value,
	})
}
