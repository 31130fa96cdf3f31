package models

// RelationshipType names one side of a follow edge. Its value is the
// path segment under users/{username}.
type RelationshipType string

const (
	Followers RelationshipType = "followers"
	Following RelationshipType = "following"
)

func (t RelationshipType) Valid() bool {
	return t == Followers || t == Following
}
