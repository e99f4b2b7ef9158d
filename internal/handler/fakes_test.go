package handler

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/game-social-network/internal/model"
	"github.com/iliyamo/game-social-network/internal/repository"
	"github.com/iliyamo/game-social-network/internal/utils"
)

// In-memory fakes of the store interfaces. They reproduce the error
// semantics of the repositories so handler tests run without MySQL.

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uint64]model.User)}
}

func (f *fakeUsers) Create(_ context.Context, username, email, password string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	f.nextID++
	u := model.User{
		ID:           f.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) Exists(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return ok && u.IsActive, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) deactivate(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	u.IsActive = false
	f.users[id] = u
}

type fakeTokens struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[string]*model.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byHash: make(map[string]*model.RefreshToken)}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, chainID string, parentID *uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.byHash[tokenHash] = &model.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		ChainID:   chainID,
		ParentID:  parentID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *fakeTokens) RotateRefresh(_ context.Context, tokenHash, successorHash string, successorExp time.Time) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[tokenHash]
	if !ok {
		return model.RefreshToken{}, repository.ErrRefreshNotFound
	}
	if t.RevokedAt != nil {
		return model.RefreshToken{}, repository.ErrRefreshRevoked
	}
	if t.UsedAt != nil {
		f.revokeChainLocked(t.ChainID)
		return *t, repository.ErrRefreshReused
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, repository.ErrRefreshExpired
	}
	now := time.Now().UTC()
	t.UsedAt = &now
	// The successor lands in the same critical section as the used_at
	// mark, mirroring the single store transaction.
	parent := t.ID
	f.nextID++
	f.byHash[successorHash] = &model.RefreshToken{
		ID:        f.nextID,
		UserID:    t.UserID,
		ChainID:   t.ChainID,
		ParentID:  &parent,
		TokenHash: successorHash,
		ExpiresAt: successorExp,
		CreatedAt: now,
	}
	return *t, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[tokenHash]
	if !ok || t.RevokedAt != nil {
		return repository.ErrRefreshNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokens) revokeChainLocked(chainID string) {
	now := time.Now().UTC()
	for _, t := range f.byHash {
		if t.ChainID == chainID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
}

func (f *fakeTokens) liveCount(userID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.byHash {
		if t.UserID == userID && t.RevokedAt == nil && t.UsedAt == nil {
			n++
		}
	}
	return n
}

type fakeFriends struct {
	mu          sync.Mutex
	nextReqID   uint64
	nextFsID    uint64
	requests    map[uint64]*model.FriendRequest
	friendships map[[2]uint64]*model.Friendship
	blocks      map[[2]uint64]bool // directional: [blocker, blocked]
}

func newFakeFriends() *fakeFriends {
	return &fakeFriends{
		requests:    make(map[uint64]*model.FriendRequest),
		friendships: make(map[[2]uint64]*model.Friendship),
		blocks:      make(map[[2]uint64]bool),
	}
}

func (f *fakeFriends) SendRequest(_ context.Context, requesterID, recipientID uint64) (model.FriendRequest, *model.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if requesterID == recipientID {
		return model.FriendRequest{}, nil, repository.ErrSelfRequest
	}
	if f.blocks[[2]uint64{requesterID, recipientID}] || f.blocks[[2]uint64{recipientID, requesterID}] {
		return model.FriendRequest{}, nil, repository.ErrBlocked
	}
	lo, hi := model.NormalizePair(requesterID, recipientID)
	if _, ok := f.friendships[[2]uint64{lo, hi}]; ok {
		return model.FriendRequest{}, nil, repository.ErrAlreadyFriends
	}
	for _, fr := range f.requests {
		if fr.Status != model.FriendRequestPending {
			continue
		}
		if fr.RequesterID == requesterID && fr.RecipientID == recipientID {
			return model.FriendRequest{}, nil, repository.ErrDuplicatePending
		}
		if fr.RequesterID == recipientID && fr.RecipientID == requesterID {
			// mutual intent: accept the opposite request
			fs := f.acceptLocked(fr)
			return *fr, fs, nil
		}
	}
	f.nextReqID++
	fr := &model.FriendRequest{
		ID:          f.nextReqID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FriendRequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	f.requests[fr.ID] = fr
	return *fr, nil, nil
}

func (f *fakeFriends) acceptLocked(fr *model.FriendRequest) *model.Friendship {
	now := time.Now().UTC()
	fr.Status = model.FriendRequestAccepted
	fr.RespondedAt = &now
	lo, hi := model.NormalizePair(fr.RequesterID, fr.RecipientID)
	f.nextFsID++
	fs := &model.Friendship{ID: f.nextFsID, UserLoID: lo, UserHiID: hi, CreatedAt: now}
	f.friendships[[2]uint64{lo, hi}] = fs
	return fs
}

func (f *fakeFriends) Accept(_ context.Context, requestID, actingUserID uint64) (model.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fr, ok := f.requests[requestID]
	if !ok {
		return model.Friendship{}, repository.ErrRequestNotFound
	}
	if fr.RecipientID != actingUserID {
		return model.Friendship{}, repository.ErrNotRecipient
	}
	if fr.Status != model.FriendRequestPending {
		return model.Friendship{}, repository.ErrRequestNotPending
	}
	return *f.acceptLocked(fr), nil
}

func (f *fakeFriends) Reject(_ context.Context, requestID, actingUserID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fr, ok := f.requests[requestID]
	if !ok {
		return repository.ErrRequestNotFound
	}
	if fr.RecipientID != actingUserID {
		return repository.ErrNotRecipient
	}
	if fr.Status != model.FriendRequestPending {
		return repository.ErrRequestNotPending
	}
	now := time.Now().UTC()
	fr.Status = model.FriendRequestRejected
	fr.RespondedAt = &now
	return nil
}

func (f *fakeFriends) RemoveFriendship(_ context.Context, userID, friendID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := model.NormalizePair(userID, friendID)
	if _, ok := f.friendships[[2]uint64{lo, hi}]; !ok {
		return repository.ErrFriendshipNotFound
	}
	delete(f.friendships, [2]uint64{lo, hi})
	return nil
}

func (f *fakeFriends) AreFriends(_ context.Context, a, b uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := model.NormalizePair(a, b)
	_, ok := f.friendships[[2]uint64{lo, hi}]
	return ok, nil
}

func (f *fakeFriends) ListFriends(_ context.Context, userID uint64) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0)
	for pair := range f.friendships {
		if pair[0] == userID {
			out = append(out, model.User{ID: pair[1]})
		} else if pair[1] == userID {
			out = append(out, model.User{ID: pair[0]})
		}
	}
	return out, nil
}

func (f *fakeFriends) ListPendingReceived(_ context.Context, userID uint64) ([]model.FriendRequest, error) {
	return f.listPending(func(fr *model.FriendRequest) bool { return fr.RecipientID == userID })
}

func (f *fakeFriends) ListPendingSent(_ context.Context, userID uint64) ([]model.FriendRequest, error) {
	return f.listPending(func(fr *model.FriendRequest) bool { return fr.RequesterID == userID })
}

func (f *fakeFriends) listPending(match func(*model.FriendRequest) bool) ([]model.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.FriendRequest, 0)
	for _, fr := range f.requests {
		if fr.Status == model.FriendRequestPending && match(fr) {
			out = append(out, *fr)
		}
	}
	return out, nil
}

func (f *fakeFriends) Block(_ context.Context, userID, targetID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[[2]uint64{userID, targetID}] = true
	lo, hi := model.NormalizePair(userID, targetID)
	delete(f.friendships, [2]uint64{lo, hi})
	for id, fr := range f.requests {
		if fr.Status != model.FriendRequestPending {
			continue
		}
		samePair := (fr.RequesterID == userID && fr.RecipientID == targetID) ||
			(fr.RequesterID == targetID && fr.RecipientID == userID)
		if samePair {
			delete(f.requests, id)
		}
	}
	return nil
}

func (f *fakeFriends) Unblock(_ context.Context, userID, targetID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocks, [2]uint64{userID, targetID})
	return nil
}

type fakeGames struct {
	mu     sync.Mutex
	nextID uint64
	games  map[uint64]model.Game
}

func newFakeGames() *fakeGames { return &fakeGames{games: make(map[uint64]model.Game)} }

func (f *fakeGames) Create(_ context.Context, g *model.Game) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.APIID != nil {
		for _, ex := range f.games {
			if ex.APIID != nil && *ex.APIID == *g.APIID {
				return 0, repository.ErrGameExists
			}
		}
	}
	f.nextID++
	g.ID = f.nextID
	g.CreatedAt = time.Now().UTC()
	g.UpdatedAt = g.CreatedAt
	f.games[g.ID] = *g
	return g.ID, nil
}

func (f *fakeGames) GetByID(_ context.Context, id uint64) (model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return model.Game{}, repository.ErrGameNotFound
	}
	return g, nil
}

func (f *fakeGames) Exists(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.games[id]
	return ok, nil
}

type fakeWishlists struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[[2]uint64]model.WishlistEntry // [user, game]
	games   *fakeGames
}

func newFakeWishlists(games *fakeGames) *fakeWishlists {
	return &fakeWishlists{entries: make(map[[2]uint64]model.WishlistEntry), games: games}
}

func (f *fakeWishlists) Add(_ context.Context, userID, gameID uint64, url *string) (model.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint64{userID, gameID}
	if _, ok := f.entries[key]; ok {
		return model.WishlistEntry{}, repository.ErrWishlistDuplicate
	}
	f.nextID++
	e := model.WishlistEntry{ID: f.nextID, UserID: userID, GameID: gameID, URL: url, AddedAt: time.Now().UTC()}
	f.entries[key] = e
	return e, nil
}

func (f *fakeWishlists) Remove(_ context.Context, userID, gameID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint64{userID, gameID}
	if _, ok := f.entries[key]; !ok {
		return repository.ErrWishlistNotFound
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeWishlists) ListGames(_ context.Context, userID uint64) ([]model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Game, 0)
	for key := range f.entries {
		if key[0] == userID {
			if g, ok := f.games.games[key[1]]; ok {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

type fakeCalifications struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[[2]uint64]*model.Calification // [user, game]
}

func newFakeCalifications() *fakeCalifications {
	return &fakeCalifications{rows: make(map[[2]uint64]*model.Calification)}
}

func (f *fakeCalifications) Upsert(_ context.Context, userID, gameID uint64, score int, review *string) (model.Calification, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint64{userID, gameID}
	now := time.Now().UTC()
	if c, ok := f.rows[key]; ok {
		c.Score = score
		c.Review = review
		c.UpdatedAt = now
		return *c, false, nil
	}
	f.nextID++
	c := &model.Calification{ID: f.nextID, UserID: userID, GameID: gameID, Score: score, Review: review, CreatedAt: now, UpdatedAt: now}
	f.rows[key] = c
	return *c, true, nil
}

func (f *fakeCalifications) Delete(_ context.Context, califID, actingUserID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, c := range f.rows {
		if c.ID == califID {
			if c.UserID != actingUserID {
				return repository.ErrForbidden
			}
			delete(f.rows, key)
			return nil
		}
	}
	return repository.ErrCalificationNotFound
}

func (f *fakeCalifications) ListByUser(_ context.Context, userID uint64) ([]model.Calification, error) {
	return f.list(func(c *model.Calification) bool { return c.UserID == userID })
}

func (f *fakeCalifications) ListByGame(_ context.Context, gameID uint64) ([]model.Calification, error) {
	return f.list(func(c *model.Calification) bool { return c.GameID == gameID })
}

func (f *fakeCalifications) list(match func(*model.Calification) bool) ([]model.Calification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Calification, 0)
	for _, c := range f.rows {
		if match(c) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCalifications) AggregateForGame(_ context.Context, gameID uint64) (model.GameRatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := model.GameRatingStats{GameID: gameID, Distribution: make(map[int]int)}
	sum := 0
	for _, c := range f.rows {
		if c.GameID == gameID {
			stats.Distribution[c.Score]++
			stats.Count++
			sum += c.Score
		}
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

type fakeComments struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Comment
	likes  map[[2]uint64]bool // [user, comment]
}

func newFakeComments() *fakeComments {
	return &fakeComments{
		rows:  make(map[uint64]*model.Comment),
		likes: make(map[[2]uint64]bool),
	}
}

func (f *fakeComments) Create(_ context.Context, userID, gameID uint64, parentID *uint64, content string, isPublic bool) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if parentID != nil {
		parent, ok := f.rows[*parentID]
		if !ok {
			return model.Comment{}, repository.ErrNotFound
		}
		if parent.GameID != gameID {
			return model.Comment{}, repository.ErrCommentParentMismatch
		}
		if parent.ParentID != nil {
			return model.Comment{}, repository.ErrCommentReplyDepth
		}
	}
	f.nextID++
	now := time.Now().UTC()
	c := &model.Comment{
		ID:        f.nextID,
		UserID:    userID,
		GameID:    gameID,
		ParentID:  parentID,
		Content:   content,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.rows[c.ID] = c
	return *c, nil
}

func (f *fakeComments) GetWithReplies(_ context.Context, commentID, viewerID uint64) (model.Comment, []model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[commentID]
	if !ok || (!c.IsPublic && c.UserID != viewerID) {
		return model.Comment{}, nil, repository.ErrNotFound
	}
	replies := make([]model.Comment, 0)
	for _, r := range f.rows {
		if r.ParentID != nil && *r.ParentID == commentID && (r.IsPublic || r.UserID == viewerID) {
			replies = append(replies, *r)
		}
	}
	return *c, replies, nil
}

func (f *fakeComments) ListByGame(_ context.Context, gameID, viewerID uint64) ([]model.Comment, error) {
	return f.list(func(c *model.Comment) bool {
		return c.GameID == gameID && c.ParentID == nil && (c.IsPublic || c.UserID == viewerID)
	})
}

func (f *fakeComments) ListByUser(_ context.Context, userID, viewerID uint64) ([]model.Comment, error) {
	return f.list(func(c *model.Comment) bool {
		return c.UserID == userID && (c.IsPublic || userID == viewerID)
	})
}

func (f *fakeComments) list(match func(*model.Comment) bool) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Comment, 0)
	for _, c := range f.rows {
		if match(c) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) Update(_ context.Context, commentID, actingUserID uint64, content *string, isPublic *bool) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[commentID]
	if !ok {
		return model.Comment{}, repository.ErrNotFound
	}
	if c.UserID != actingUserID {
		return model.Comment{}, repository.ErrForbidden
	}
	if content != nil {
		c.Content = *content
		c.IsEdited = true
	}
	if isPublic != nil {
		c.IsPublic = *isPublic
	}
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (f *fakeComments) Delete(_ context.Context, commentID, actingUserID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[commentID]
	if !ok {
		return repository.ErrNotFound
	}
	if c.UserID != actingUserID {
		return repository.ErrForbidden
	}
	for id, r := range f.rows {
		if r.ParentID != nil && *r.ParentID == commentID {
			delete(f.rows, id)
		}
	}
	delete(f.rows, commentID)
	return nil
}

func (f *fakeComments) Like(_ context.Context, commentID, userID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[commentID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	key := [2]uint64{userID, commentID}
	if f.likes[key] {
		return c.LikeCount, repository.ErrConflict
	}
	f.likes[key] = true
	c.LikeCount++
	return c.LikeCount, nil
}

func (f *fakeComments) Unlike(_ context.Context, commentID, userID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[commentID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	key := [2]uint64{userID, commentID}
	if f.likes[key] {
		delete(f.likes, key)
		c.LikeCount--
	}
	return c.LikeCount, nil
}

type fakeEvents struct {
	mu          sync.Mutex
	friendships []model.Friendship
	reuses      []string // chain ids
}

func (f *fakeEvents) FriendshipAccepted(_ context.Context, fs model.Friendship, _ uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendships = append(f.friendships, fs)
}

func (f *fakeEvents) TokenReuseDetected(_ context.Context, _ uint64, chainID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reuses = append(f.reuses, chainID)
}

type fakeDenylist struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func newFakeDenylist() *fakeDenylist { return &fakeDenylist{jtis: make(map[string]bool)} }

func (f *fakeDenylist) Revoke(_ context.Context, jti string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jtis[jti] = true
	return nil
}
