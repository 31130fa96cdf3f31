package notifications

import (
	"context"
	"fmt"

	"clipshare/models"
	"clipshare/mq"

	"github.com/sirupsen/logrus"
)

// Pusher appends a notification to a user's feed.
type Pusher interface {
	PushNotification(ctx context.Context, username string, typ models.NotificationType, text string) (models.Notification, error)
}

// Build turns an event into the notification its target should see. It
// reports false for events that notify nobody: unfollows, new posts and
// anything a user did to themselves.
func Build(ev mq.Event) (recipient string, typ models.NotificationType, text string, ok bool) {
	if ev.Actor == "" || ev.Target == "" || ev.Actor == ev.Target {
		return "", models.NotificationType{}, "", false
	}
	switch ev.Type {
	case mq.EventFollowed:
		return ev.Target, models.NotificationType{Kind: models.NotifyUserFollow, Ref: ev.Actor},
			fmt.Sprintf("@%s started following you", ev.Actor), true
	case mq.EventLiked:
		return ev.Target, models.NotificationType{Kind: models.NotifyPostLike, Ref: ev.PostID},
			fmt.Sprintf("@%s liked your post", ev.Actor), true
	case mq.EventCommented:
		text := fmt.Sprintf("@%s commented on your post", ev.Actor)
		if ev.Text != "" {
			text = fmt.Sprintf("@%s commented: %s", ev.Actor, truncate(ev.Text, 80))
		}
		return ev.Target, models.NotificationType{Kind: models.NotifyPostComment, Ref: ev.PostID}, text, true
	}
	return "", models.NotificationType{}, "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Worker consumes social events and fills notification feeds.
type Worker struct {
	sub  mq.Subscriber
	sink Pusher
	log  *logrus.Entry
}

func NewWorker(sub mq.Subscriber, sink Pusher, log *logrus.Entry) *Worker {
	return &Worker{sub: sub, sink: sink, log: log}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	return w.sub.Subscribe(ctx, w.Handle)
}

func (w *Worker) Handle(ctx context.Context, ev mq.Event) {
	recipient, typ, text, ok := Build(ev)
	if !ok {
		return
	}
	if _, err := w.sink.PushNotification(ctx, recipient, typ, text); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{"type": ev.Type, "recipient": recipient}).Warn("failed to push notification")
		return
	}
	w.log.WithFields(logrus.Fields{"kind": typ.Kind, "recipient": recipient}).Debug("notification pushed")
}
