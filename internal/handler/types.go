package handler

import (
	"time"

	"github.com/iliyamo/game-social-network/internal/model"
)

// ----- shared response parts -----

type userPart struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type friendRequestPart struct {
	ID          uint64     `json:"id"`
	RequesterID uint64     `json:"requester_id"`
	RecipientID uint64     `json:"recipient_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func toFriendRequestPart(fr model.FriendRequest) friendRequestPart {
	return friendRequestPart{
		ID:          fr.ID,
		RequesterID: fr.RequesterID,
		RecipientID: fr.RecipientID,
		Status:      fr.Status,
		CreatedAt:   fr.CreatedAt,
		RespondedAt: fr.RespondedAt,
	}
}

type friendshipPart struct {
	ID        uint64    `json:"id"`
	UserLoID  uint64    `json:"user_lo_id"`
	UserHiID  uint64    `json:"user_hi_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toFriendshipPart(fs model.Friendship) friendshipPart {
	return friendshipPart{ID: fs.ID, UserLoID: fs.UserLoID, UserHiID: fs.UserHiID, CreatedAt: fs.CreatedAt}
}

type gamePart struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Genre       *string `json:"genre,omitempty"`
	APIID       *string `json:"api_id,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverImage  *string `json:"cover_image,omitempty"`
	ReleaseDate *string `json:"release_date,omitempty"`
	Platforms   *string `json:"platforms,omitempty"`
	Developer   *string `json:"developer,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
}

func toGamePart(g model.Game) gamePart {
	return gamePart{
		ID:          g.ID,
		Name:        g.Name,
		Genre:       g.Genre,
		APIID:       g.APIID,
		Description: g.Description,
		CoverImage:  g.CoverImage,
		ReleaseDate: g.ReleaseDate,
		Platforms:   g.Platforms,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
	}
}

func toGameParts(games []model.Game) []gamePart {
	out := make([]gamePart, 0, len(games))
	for _, g := range games {
		out = append(out, toGamePart(g))
	}
	return out
}

type commentPart struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	GameID    uint64    `json:"game_id"`
	ParentID  *uint64   `json:"parent_comment_id,omitempty"`
	Content   string    `json:"content"`
	IsPublic  bool      `json:"is_public"`
	IsEdited  bool      `json:"is_edited"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCommentPart(c model.Comment) commentPart {
	return commentPart{
		ID:        c.ID,
		UserID:    c.UserID,
		GameID:    c.GameID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		IsPublic:  c.IsPublic,
		IsEdited:  c.IsEdited,
		Likes:     c.LikeCount,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentParts(comments []model.Comment) []commentPart {
	out := make([]commentPart, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentPart(c))
	}
	return out
}

type calificationPart struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	GameID    uint64    `json:"game_id"`
	Score     int       `json:"score"`
	Review    *string   `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCalificationPart(c model.Calification) calificationPart {
	return calificationPart{
		ID:        c.ID,
		UserID:    c.UserID,
		GameID:    c.GameID,
		Score:     c.Score,
		Review:    c.Review,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
