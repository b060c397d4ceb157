package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	"github.com/templui/goalcoach/internal/model"
)

var (
	ErrInvalidRole = errors.New("invalid message role")
)

// MessageRepository stores conversation turns per (thread, user).
type MessageRepository interface {
	Append(threadID, userID string, role model.Role, content string) (*model.Message, error)
	// History returns up to limit most recent messages, oldest first.
	History(threadID, userID string, limit int) ([]*model.Message, error)
}

type messageRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db, now: time.Now}
}

func (r *messageRepository) Append(threadID, userID string, role model.Role, content string) (*model.Message, error) {
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	// V7 ids sort by creation, which breaks created_at ties.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	msg := &model.Message{
		ID:        id.String(),
		ThreadID:  threadID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: r.now().UTC(),
	}

	query := `INSERT INTO messages (id, thread_id, user_id, role, content, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(query, msg.ID, msg.ThreadID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepository) History(threadID, userID string, limit int) ([]*model.Message, error) {
	messages := []*model.Message{}
	if limit <= 0 {
		return messages, nil
	}

	query := `SELECT * FROM (
	              SELECT * FROM messages WHERE thread_id = $1 AND user_id = $2
	              ORDER BY created_at DESC, id DESC LIMIT $3
	          ) recent ORDER BY created_at ASC, id ASC`

	err := r.db.Select(&messages, query, threadID, userID, limit)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		m.CreatedAt = utc(m.CreatedAt)
	}
	return messages, nil
}

// cachedMessageRepository keeps the recent window of each conversation in
// memory. Writes go to the store first, then to the cache.
type cachedMessageRepository struct {
	next   MessageRepository
	window int

	mu      sync.Mutex
	cache   *lru.Cache[string, []*model.Message]
	loading map[string]*load
}

// load tracks History calls reading a conversation from the store. An Append
// that lands meanwhile marks it stale so the snapshot is not cached.
type load struct {
	readers int
	stale   bool
}

// NewCachedMessageRepository wraps next with an LRU cache of up to size
// conversations, each holding at most window messages.
func NewCachedMessageRepository(next MessageRepository, size, window int) (MessageRepository, error) {
	cache, err := lru.New[string, []*model.Message](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create message cache: %w", err)
	}
	return &cachedMessageRepository{next: next, window: window, cache: cache, loading: map[string]*load{}}, nil
}

func conversationKey(threadID, userID string) string {
	return userID + "\x00" + threadID
}

func (r *cachedMessageRepository) Append(threadID, userID string, role model.Role, content string) (*model.Message, error) {
	msg, err := r.next.Append(threadID, userID, role, content)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationKey(threadID, userID)
	cached, ok := r.cache.Get(key)
	if !ok {
		// Nothing to extend; the next History call loads from the store.
		if l, loading := r.loading[key]; loading {
			l.stale = true
		}
		return msg, nil
	}

	updated := make([]*model.Message, 0, len(cached)+1)
	updated = append(updated, cached...)
	updated = append(updated, msg)
	if len(updated) > r.window {
		updated = updated[len(updated)-r.window:]
	}
	r.cache.Add(key, updated)
	return msg, nil
}

func (r *cachedMessageRepository) History(threadID, userID string, limit int) ([]*model.Message, error) {
	if limit > r.window {
		return r.next.History(threadID, userID, limit)
	}

	key := conversationKey(threadID, userID)

	r.mu.Lock()
	cached, ok := r.cache.Get(key)
	if !ok {
		l := r.loading[key]
		if l == nil {
			l = &load{}
			r.loading[key] = l
		}
		l.readers++
	}
	r.mu.Unlock()

	if !ok {
		loaded, err := r.next.History(threadID, userID, r.window)

		r.mu.Lock()
		l := r.loading[key]
		stale := l.stale
		l.readers--
		if l.readers == 0 {
			delete(r.loading, key)
		}
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		// A concurrent History call may have filled the entry meanwhile.
		cached, ok = r.cache.Get(key)
		if !ok {
			cached = loaded
			if !stale {
				r.cache.Add(key, loaded)
			}
		}
		r.mu.Unlock()
	}

	if limit < 0 {
		limit = 0
	}
	if len(cached) > limit {
		cached = cached[len(cached)-limit:]
	}
	out := make([]*model.Message, len(cached))
	copy(out, cached)
	return out, nil
}
