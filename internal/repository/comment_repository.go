package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-social-network/internal/model"
)

// CommentRepo stores game comments, one-level replies and per-user
// likes. Visibility is enforced here: private comments only surface to
// their author, identified by the viewerID passed to the read methods
// (0 for anonymous callers).
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

var (
	// ErrCommentParentMismatch is returned when a reply names a parent
	// comment that belongs to a different game.
	ErrCommentParentMismatch = errors.New("parent comment belongs to a different game")
	// ErrCommentReplyDepth is returned when a reply names another reply
	// as its parent; threads are one level deep.
	ErrCommentReplyDepth = errors.New("replies cannot be nested")
)

const commentColumns = "id, user_id, game_id, parent_id, content, is_public, is_edited, like_count, created_at, updated_at"

// Create inserts a comment. Replies are validated against their
// parent: ErrNotFound when the parent does not exist and
// ErrCommentParentMismatch when it is attached to another game.
func (r *CommentRepo) Create(ctx context.Context, userID, gameID uint64, parentID *uint64, content string, isPublic bool) (model.Comment, error) {
	if parentID != nil {
		var parentGame uint64
		var grandparent *uint64
		err := r.DB.QueryRowContext(ctx,
			"SELECT game_id, parent_id FROM comments WHERE id=? LIMIT 1", *parentID).
			Scan(&parentGame, &grandparent)
		if err == sql.ErrNoRows {
			return model.Comment{}, ErrNotFound
		}
		if err != nil {
			return model.Comment{}, err
		}
		if parentGame != gameID {
			return model.Comment{}, ErrCommentParentMismatch
		}
		if grandparent != nil {
			return model.Comment{}, ErrCommentReplyDepth
		}
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (user_id, game_id, parent_id, content, is_public) VALUES (?,?,?,?,?)",
		userID, gameID, parentID, content, isPublic)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return r.getByID(ctx, uint64(id))
}

// GetWithReplies returns a comment plus its direct replies, oldest
// reply first. A private comment is ErrNotFound for everyone but its
// author; private replies are filtered the same way.
func (r *CommentRepo) GetWithReplies(ctx context.Context, commentID, viewerID uint64) (model.Comment, []model.Comment, error) {
	c, err := r.getByID(ctx, commentID)
	if err != nil {
		return model.Comment{}, nil, err
	}
	if !c.IsPublic && c.UserID != viewerID {
		return model.Comment{}, nil, ErrNotFound
	}
	replies, err := r.scanMany(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE parent_id=? AND (is_public=1 OR user_id=?) ORDER BY created_at ASC",
		commentID, viewerID)
	if err != nil {
		return model.Comment{}, nil, err
	}
	return c, replies, nil
}

// ListByGame returns a game's top-level comments, newest first. The
// viewer sees public comments plus their own private ones.
func (r *CommentRepo) ListByGame(ctx context.Context, gameID, viewerID uint64) ([]model.Comment, error) {
	return r.scanMany(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE game_id=? AND parent_id IS NULL AND (is_public=1 OR user_id=?) ORDER BY created_at DESC",
		gameID, viewerID)
}

// ListByUser returns a user's comments, newest first. Viewers other
// than the author only see public ones.
func (r *CommentRepo) ListByUser(ctx context.Context, userID, viewerID uint64) ([]model.Comment, error) {
	if userID == viewerID {
		return r.scanMany(ctx,
			"SELECT "+commentColumns+" FROM comments WHERE user_id=? ORDER BY created_at DESC", userID)
	}
	return r.scanMany(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE user_id=? AND is_public=1 ORDER BY created_at DESC", userID)
}

// Update edits content and/or visibility. Only the author may edit; a
// content change marks the comment edited.
func (r *CommentRepo) Update(ctx context.Context, commentID, actingUserID uint64, content *string, isPublic *bool) (model.Comment, error) {
	c, err := r.getByID(ctx, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if c.UserID != actingUserID {
		return model.Comment{}, ErrForbidden
	}
	if content == nil && isPublic == nil {
		return c, nil
	}
	if content != nil {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE comments SET content=?, is_edited=1, updated_at=UTC_TIMESTAMP() WHERE id=?",
			*content, commentID); err != nil {
			return model.Comment{}, err
		}
	}
	if isPublic != nil {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE comments SET is_public=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
			*isPublic, commentID); err != nil {
			return model.Comment{}, err
		}
	}
	return r.getByID(ctx, commentID)
}

// Delete removes a comment, its replies and every like attached to
// either, in one transaction. Only the author may delete.
func (r *CommentRepo) Delete(ctx context.Context, commentID, actingUserID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM comments WHERE id=? LIMIT 1", commentID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != actingUserID {
		return ErrForbidden
	}

	stmts := []string{
		"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE parent_id=?)",
		"DELETE FROM comment_likes WHERE comment_id=?",
		"DELETE FROM comments WHERE parent_id=?",
		"DELETE FROM comments WHERE id=?",
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, commentID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Like records the user's like and returns the updated count. Liking
// twice returns the current count with ErrConflict so callers can stay
// idempotent at the HTTP surface.
func (r *CommentRepo) Like(ctx context.Context, commentID, userID uint64) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT like_count FROM comments WHERE id=? LIMIT 1", commentID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO comment_likes (user_id, comment_id) VALUES (?,?)", userID, commentID); err != nil {
		if isDuplicateKey(err) {
			return count, ErrConflict
		}
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE comments SET like_count=like_count+1 WHERE id=?", commentID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return count + 1, nil
}

// Unlike removes the user's like if present and returns the updated
// count. Unliking something never liked is a no-op.
func (r *CommentRepo) Unlike(ctx context.Context, commentID, userID uint64) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT like_count FROM comments WHERE id=? LIMIT 1", commentID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM comment_likes WHERE user_id=? AND comment_id=?", userID, commentID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 1 && count > 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE comments SET like_count=like_count-1 WHERE id=?", commentID); err != nil {
			return 0, err
		}
		count--
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return count, nil
}

func (r *CommentRepo) getByID(ctx context.Context, id uint64) (model.Comment, error) {
	var c model.Comment
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.UserID, &c.GameID, &c.ParentID, &c.Content, &c.IsPublic,
			&c.IsEdited, &c.LikeCount, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Comment{}, ErrNotFound
	}
	return c, err
}

func (r *CommentRepo) scanMany(ctx context.Context, q string, args ...interface{}) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.GameID, &c.ParentID, &c.Content, &c.IsPublic,
			&c.IsEdited, &c.LikeCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
