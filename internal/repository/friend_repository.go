package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-social-network/internal/model"
)

// FriendRepo implements the friend-request state machine and the
// materialized friendship relation. Requests transition
// PENDING -> ACCEPTED|REJECTED exactly once, guarded by a
// check-and-set on the status column, and an accepted request inserts
// the friendship row in the same transaction so concurrent accepts
// cannot double-materialize the edge.
//
// Friendships are stored once per pair keyed by (user_lo_id,
// user_hi_id) with lo < hi; every lookup normalizes the queried pair
// first.
type FriendRepo struct{ DB *sql.DB }

func NewFriendRepo(db *sql.DB) *FriendRepo { return &FriendRepo{DB: db} }

var (
	ErrSelfRequest        = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrDuplicatePending   = errors.New("friend request already pending")
	ErrBlocked            = errors.New("friend request not allowed")
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrRequestNotPending  = errors.New("friend request is not pending")
	ErrNotRecipient       = errors.New("only the recipient may respond")
	ErrFriendshipNotFound = errors.New("friendship not found")
)

const requestColumns = "id, requester_id, recipient_id, status, created_at, responded_at"

// SendRequest creates a pending request from requester to recipient.
// When a pending request already exists in the opposite direction both
// sides have expressed intent, so the existing request is accepted
// instead and the resulting friendship is returned alongside it.
func (r *FriendRepo) SendRequest(ctx context.Context, requesterID, recipientID uint64) (model.FriendRequest, *model.Friendship, error) {
	if requesterID == recipientID {
		return model.FriendRequest{}, nil, ErrSelfRequest
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.FriendRequest{}, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	blocked, err := blockedPairTx(ctx, tx, requesterID, recipientID)
	if err != nil {
		return model.FriendRequest{}, nil, err
	}
	if blocked {
		return model.FriendRequest{}, nil, ErrBlocked
	}

	lo, hi := model.NormalizePair(requesterID, recipientID)
	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM friendships WHERE user_lo_id=? AND user_hi_id=? LIMIT 1", lo, hi).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		return model.FriendRequest{}, nil, err
	}
	if err == nil {
		return model.FriendRequest{}, nil, ErrAlreadyFriends
	}

	// Lock any pending request between the pair, in either direction,
	// so concurrent mutual sends serialize here.
	var pending model.FriendRequest
	err = tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM friend_requests
		 WHERE status='PENDING'
		   AND ((requester_id=? AND recipient_id=?) OR (requester_id=? AND recipient_id=?))
		 LIMIT 1 FOR UPDATE`,
		requesterID, recipientID, recipientID, requesterID).
		Scan(&pending.ID, &pending.RequesterID, &pending.RecipientID, &pending.Status,
			&pending.CreatedAt, &pending.RespondedAt)
	switch {
	case err == sql.ErrNoRows:
		// no pending request, fall through and create one
	case err != nil:
		return model.FriendRequest{}, nil, err
	case pending.RequesterID == requesterID:
		return model.FriendRequest{}, nil, ErrDuplicatePending
	default:
		// Mutual intent: accept the opposite-direction request.
		fs, err := acceptRequestTx(ctx, tx, &pending)
		if err != nil {
			return model.FriendRequest{}, nil, err
		}
		if err := tx.Commit(); err != nil {
			return model.FriendRequest{}, nil, err
		}
		committed = true
		return pending, fs, nil
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO friend_requests (requester_id, recipient_id, status) VALUES (?,?,'PENDING')",
		requesterID, recipientID)
	if err != nil {
		return model.FriendRequest{}, nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.FriendRequest{}, nil, err
	}
	var req model.FriendRequest
	err = tx.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friend_requests WHERE id=?", id).
		Scan(&req.ID, &req.RequesterID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if err != nil {
		return model.FriendRequest{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return model.FriendRequest{}, nil, err
	}
	committed = true
	return req, nil, nil
}

// Accept transitions a pending request to ACCEPTED and materializes
// the friendship in the same transaction. Only the recipient may
// accept.
func (r *FriendRepo) Accept(ctx context.Context, requestID, actingUserID uint64) (model.Friendship, error) {
	var fs model.Friendship
	err := r.respond(ctx, requestID, actingUserID, func(ctx context.Context, tx *sql.Tx, req *model.FriendRequest) error {
		got, err := acceptRequestTx(ctx, tx, req)
		if err != nil {
			return err
		}
		fs = *got
		return nil
	})
	return fs, err
}

// Reject transitions a pending request to REJECTED. No friendship is
// created; the state is terminal and a later re-request starts a new
// record.
func (r *FriendRepo) Reject(ctx context.Context, requestID, actingUserID uint64) error {
	return r.respond(ctx, requestID, actingUserID, func(ctx context.Context, tx *sql.Tx, req *model.FriendRequest) error {
		return transitionTx(ctx, tx, req.ID, model.FriendRequestRejected)
	})
}

// respond loads the request, enforces recipient-only responses and runs
// the state transition inside one transaction.
func (r *FriendRepo) respond(ctx context.Context, requestID, actingUserID uint64,
	apply func(context.Context, *sql.Tx, *model.FriendRequest) error) error {
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

	var req model.FriendRequest
	err = tx.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friend_requests WHERE id=?", requestID).
		Scan(&req.ID, &req.RequesterID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if err == sql.ErrNoRows {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	if req.RecipientID != actingUserID {
		return ErrNotRecipient
	}
	if req.Status != model.FriendRequestPending {
		return ErrRequestNotPending
	}
	if err := apply(ctx, tx, &req); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveFriendship deletes the symmetric relation for both parties.
func (r *FriendRepo) RemoveFriendship(ctx context.Context, userID, friendID uint64) error {
	lo, hi := model.NormalizePair(userID, friendID)
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM friendships WHERE user_lo_id=? AND user_hi_id=?", lo, hi)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

// AreFriends reports whether the pair has a materialized friendship.
func (r *FriendRepo) AreFriends(ctx context.Context, a, b uint64) (bool, error) {
	lo, hi := model.NormalizePair(a, b)
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM friendships WHERE user_lo_id=? AND user_hi_id=? LIMIT 1", lo, hi).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListFriends returns the users the given user is friends with,
// oldest friendship first.
func (r *FriendRepo) ListFriends(ctx context.Context, userID uint64) ([]model.User, error) {
	const q = `SELECT u.id, u.username, u.email, u.password_hash, u.is_active, u.created_at, u.updated_at
	           FROM friendships f
	           JOIN users u ON u.id = IF(f.user_lo_id=?, f.user_hi_id, f.user_lo_id)
	           WHERE f.user_lo_id=? OR f.user_hi_id=?
	           ORDER BY f.created_at ASC`
	rows, err := r.DB.QueryContext(ctx, q, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	friends := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

// ListPendingReceived returns pending requests addressed to the user,
// oldest first.
func (r *FriendRepo) ListPendingReceived(ctx context.Context, userID uint64) ([]model.FriendRequest, error) {
	return r.listPending(ctx, "recipient_id", userID)
}

// ListPendingSent returns pending requests the user has sent, oldest first.
func (r *FriendRepo) ListPendingSent(ctx context.Context, userID uint64) ([]model.FriendRequest, error) {
	return r.listPending(ctx, "requester_id", userID)
}

func (r *FriendRepo) listPending(ctx context.Context, col string, userID uint64) ([]model.FriendRequest, error) {
	q := "SELECT " + requestColumns + " FROM friend_requests WHERE " + col + "=? AND status='PENDING' ORDER BY created_at ASC"
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]model.FriendRequest, 0)
	for rows.Next() {
		var fr model.FriendRequest
		if err := rows.Scan(&fr.ID, &fr.RequesterID, &fr.RecipientID, &fr.Status, &fr.CreatedAt, &fr.RespondedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, fr)
	}
	return reqs, rows.Err()
}

// Block records that userID blocked targetID and tears down any
// existing relation between the pair (friendship and pending requests)
// in the same transaction. Blocking an already-blocked user is a no-op.
func (r *FriendRepo) Block(ctx context.Context, userID, targetID uint64) error {
	if userID == targetID {
		return ErrSelfRequest
	}
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

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_blocks (user_id, blocked_user_id) VALUES (?,?)",
		userID, targetID); err != nil && !isDuplicateKey(err) {
		return err
	}
	lo, hi := model.NormalizePair(userID, targetID)
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM friendships WHERE user_lo_id=? AND user_hi_id=?", lo, hi); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE status='PENDING'
		   AND ((requester_id=? AND recipient_id=?) OR (requester_id=? AND recipient_id=?))`,
		userID, targetID, targetID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Unblock removes a block if present; unblocking a user that was not
// blocked is a no-op.
func (r *FriendRepo) Unblock(ctx context.Context, userID, targetID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_blocks WHERE user_id=? AND blocked_user_id=?", userID, targetID)
	return err
}

func blockedPairTx(ctx context.Context, tx *sql.Tx, a, b uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM user_blocks
		 WHERE (user_id=? AND blocked_user_id=?) OR (user_id=? AND blocked_user_id=?)
		 LIMIT 1`, a, b, b, a).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// acceptRequestTx flips the request to ACCEPTED and inserts the
// friendship row. The status update is a check-and-set on
// status='PENDING'; losing the race surfaces as ErrRequestNotPending.
func acceptRequestTx(ctx context.Context, tx *sql.Tx, req *model.FriendRequest) (*model.Friendship, error) {
	if err := transitionTx(ctx, tx, req.ID, model.FriendRequestAccepted); err != nil {
		return nil, err
	}
	lo, hi := model.NormalizePair(req.RequesterID, req.RecipientID)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO friendships (user_lo_id, user_hi_id) VALUES (?,?)", lo, hi)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyFriends
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	req.Status = model.FriendRequestAccepted
	fs := &model.Friendship{ID: uint64(id), UserLoID: lo, UserHiID: hi}
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM friendships WHERE id=?", id).Scan(&fs.CreatedAt)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func transitionTx(ctx context.Context, tx *sql.Tx, requestID uint64, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE friend_requests SET status=?, responded_at=UTC_TIMESTAMP() WHERE id=? AND status='PENDING'",
		to, requestID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRequestNotPending
	}
	return nil
}
