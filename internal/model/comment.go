package model

import "time"

// Comment is a user's comment on a game. A nil ParentID marks a
// top-level comment; replies reference their parent. Private comments
// (IsPublic false) are visible only to their author. LikeCount is
// maintained by the store alongside the comment_likes rows.
type Comment struct {
	ID        uint64
	UserID    uint64
	GameID    uint64
	ParentID  *uint64
	Content   string
	IsPublic  bool
	IsEdited  bool
	LikeCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentContentMax bounds comment length in characters.
const CommentContentMax = 2000
