package models

import "time"

type NotificationKind string

const (
	NotifyPostLike    NotificationKind = "postLike"
	NotifyUserFollow  NotificationKind = "userFollow"
	NotifyPostComment NotificationKind = "postComment"
)

// NotificationType pairs a kind with the entity it points at: a post id
// for likes and comments, a username for follows.
type NotificationType struct {
	Kind NotificationKind `json:"kind" bson:"kind"`
	Ref  string           `json:"ref" bson:"ref"`
}

type Notification struct {
	ID       string           `json:"id" bson:"id"`
	Text     string           `json:"text" bson:"text"`
	Type     NotificationType `json:"type" bson:"type"`
	Date     time.Time        `json:"date" bson:"date"`
	IsHidden bool             `json:"isHidden" bson:"isHidden"`
}
