package social

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"clipshare/db"
	"clipshare/models"
	"clipshare/mq"

	"github.com/sirupsen/logrus"
)

// updateList adds or removes name in the string list at path inside a
// transaction. Adding is skipped when the read snapshot already holds
// name. An absent list makes removal a no-op. It reports whether the
// stored list changed.
func updateList(rw db.Txn, path, name string, add bool) (bool, error) {
	var list []string
	if _, err := rw.Read(path, &list); err != nil {
		return false, err
	}

	present := slices.Contains(list, name)
	switch {
	case add && present, !add && !present:
		return false, nil
	case add:
		list = append(list, name)
	default:
		list = slices.DeleteFunc(list, func(s string) bool { return s == name })
	}

	var value any = list
	if len(list) == 0 {
		value = nil
	}
	if err := rw.Write(path, value); err != nil {
		return false, err
	}
	return true, nil
}

// GetRelationships returns the followers or following list of username.
func (m *Manager) GetRelationships(ctx context.Context, username string, t models.RelationshipType) ([]string, error) {
	name, err := normalizeTarget(username)
	if err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRelationship, t)
	}
	var list []string
	if _, err := m.store.Read(ctx, relationshipPath(name, t), &list); err != nil {
		return nil, fmt.Errorf("get %s of %s: %w", t, name, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// IsValidRelationship reports whether the session user is in username's
// t list. With t=followers that means "I follow username".
func (m *Manager) IsValidRelationship(ctx context.Context, username string, t models.RelationshipType) (bool, error) {
	me, err := m.currentUser(ctx)
	if err != nil {
		return false, err
	}
	list, err := m.GetRelationships(ctx, username, t)
	if err != nil {
		return false, err
	}
	return slices.Contains(list, me), nil
}

// UpdateRelationship makes the session user follow (or unfollow)
// username. Both sides are written according to the manager's WriteMode
// and the call completes once for the pair.
func (m *Manager) UpdateRelationship(ctx context.Context, username string, follow bool) error {
	me, err := m.currentUser(ctx)
	if err != nil {
		return err
	}
	target, err := normalizeTarget(username)
	if err != nil {
		return err
	}
	if follow {
		if _, err := m.GetUser(ctx, target); err != nil {
			return err
		}
	}

	followingSide := relationshipPath(me, models.Following)
	followersSide := relationshipPath(target, models.Followers)

	var changed bool
	switch m.mode {
	case WriteSaga:
		changed, err = m.sagaEdge(ctx, followingSide, target, followersSide, me, follow)
	default:
		err = m.store.RunTransaction(ctx, func(tx db.Txn) error {
			a, err := updateList(tx, followingSide, target, follow)
			if err != nil {
				return err
			}
			b, err := updateList(tx, followersSide, me, follow)
			changed = a || b
			return err
		})
	}
	if err != nil {
		return fmt.Errorf("update relationship %s -> %s: %w", me, target, err)
	}

	m.log.WithFields(logrus.Fields{"user": me, "target": target, "follow": follow, "changed": changed}).Debug("relationship updated")
	if changed {
		ev := mq.Event{Type: mq.EventFollowed, Actor: me, Target: target}
		if !follow {
			ev.Type = mq.EventUnfollowed
		}
		m.publish(ctx, ev)
	}
	return nil
}

// setMember adds name to or removes it from the list at path with one
// atomic update.
func (m *Manager) setMember(ctx context.Context, path, name string, add bool) (bool, error) {
	if add {
		return m.store.AddToSet(ctx, path, name)
	}
	return m.store.Pull(ctx, path, name)
}

// sagaEdge writes the first side, then the second, each as its own atomic
// update. When the second write fails after the first changed, the first
// is put back.
func (m *Manager) sagaEdge(ctx context.Context, firstPath, firstName, secondPath, secondName string, add bool) (bool, error) {
	firstChanged, err := m.setMember(ctx, firstPath, firstName, add)
	if err != nil {
		return false, err
	}
	secondChanged, err := m.setMember(ctx, secondPath, secondName, add)
	if err == nil {
		return firstChanged || secondChanged, nil
	}
	if !firstChanged {
		return false, err
	}

	// Compensation must run even when ctx was what failed the second write.
	if _, cerr := m.setMember(context.WithoutCancel(ctx), firstPath, firstName, !add); cerr != nil {
		m.log.WithError(cerr).WithField("path", firstPath).Error("relationship compensation failed")
		return false, errors.Join(err, fmt.Errorf("compensate %s: %w", firstPath, cerr))
	}
	m.log.WithField("path", firstPath).Warn("relationship write compensated")
	return false, err
}
