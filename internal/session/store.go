package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/xxxsen/ai360/internal/model"
)

// Store keeps sessions in memory. A session idle for longer than ttl is no
// longer returned; Sweep releases its memory.
type Store struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, 0),
		now:   time.Now,
	}
}

func (s *Store) Create() *model.Session {
	sess := model.NewSession(uuid.NewString(), s.now().Unix())
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

// Get refreshes the expiry of the session it returns.
func (s *Store) Get(id string) (*model.Session, bool) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	sess := v.(*model.Session)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// Sweep drops expired sessions and returns how many remain.
func (s *Store) Sweep() int {
	s.cache.DeleteExpired()
	return s.cache.ItemCount()
}
