package social

import (
	"context"
	"fmt"
	"sort"

	"clipshare/db"
	"clipshare/models"
)

// maxNotifications bounds a user's stored feed; the oldest entries go first.
const maxNotifications = 200

// GetNotifications returns the session user's visible notifications,
// newest first.
func (m *Manager) GetNotifications(ctx context.Context) ([]models.Notification, error) {
	me, err := m.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	var items []models.Notification
	if _, err := m.store.Read(ctx, notificationsPath(me), &items); err != nil {
		return nil, fmt.Errorf("get notifications %s: %w", me, err)
	}

	visible := make([]models.Notification, 0, len(items))
	for _, n := range items {
		if !n.IsHidden {
			visible = append(visible, n)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Date.After(visible[j].Date) })
	return visible, nil
}

// MarkNotificationAsHidden persists the hidden flag on one notification.
func (m *Manager) MarkNotificationAsHidden(ctx context.Context, id string) error {
	me, err := m.currentUser(ctx)
	if err != nil {
		return err
	}
	found, err := m.store.UpdateListItem(ctx, notificationsPath(me), db.ListItem{Key: "id", Value: id}, "isHidden", true)
	if err != nil {
		return fmt.Errorf("hide notification: %w", err)
	}
	if !found {
		return fmt.Errorf("notification %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// PushNotification appends a notification to username's feed.
func (m *Manager) PushNotification(ctx context.Context, username string, typ models.NotificationType, text string) (models.Notification, error) {
	name, err := normalizeTarget(username)
	if err != nil {
		return models.Notification{}, err
	}
	n := models.Notification{ID: m.newID(), Text: text, Type: typ, Date: m.now()}

	if err := m.store.Append(ctx, notificationsPath(name), n, maxNotifications); err != nil {
		return models.Notification{}, fmt.Errorf("push notification to %s: %w", name, err)
	}
	return n, nil
}
