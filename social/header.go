package social

import (
	"context"
	"slices"

	"clipshare/models"

	"golang.org/x/sync/errgroup"
)

// ProfileHeader gathers the user, both relationship counts and, when a
// different user is signed in, whether they follow username. The reads
// run concurrently and the first failure cancels the rest.
func (m *Manager) ProfileHeader(ctx context.Context, username string) (models.ProfileHeader, error) {
	var (
		header    models.ProfileHeader
		followers []string
		following []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := m.GetUser(gctx, username)
		header.User = u
		return err
	})
	g.Go(func() error {
		var err error
		followers, err = m.GetRelationships(gctx, username, models.Followers)
		return err
	})
	g.Go(func() error {
		var err error
		following, err = m.GetRelationships(gctx, username, models.Following)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ProfileHeader{}, err
	}

	header.FollowerCount = len(followers)
	header.FollowingCount = len(following)
	if me, err := m.currentUser(ctx); err == nil && me != header.User.Name {
		isFollowing := slices.Contains(followers, me)
		header.IsFollowing = &isFollowing
	}
	return header, nil
}
