package sessions

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/evaluator"
)

// NewNotifier builds the notifier a player's evaluator dispatches to.
type NewNotifier func(playerUUID string) evaluator.Notifier

type session struct {
	mutex sync.Mutex
	eval  *evaluator.Evaluator
}

// Store holds one evaluator session per player. Sessions expire after the
// TTL without activity; an expired session starts over with an empty
// dispatched set, like a fresh process would.
//
// The evaluator itself is not synchronized, so all access goes through
// the per-session mutex.
type Store struct {
	sessions    *ttlcache.Cache[string, *session]
	thresholds  domain.Thresholds
	newNotifier NewNotifier
}

func NewStore(ttl time.Duration, thresholds domain.Thresholds, newNotifier NewNotifier) (*Store, func()) {
	sessionTTLCache := ttlcache.New[string, *session](
		ttlcache.WithTTL[string, *session](ttl),
	)
	go sessionTTLCache.Start()

	return &Store{
		sessions:    sessionTTLCache,
		thresholds:  thresholds,
		newNotifier: newNotifier,
	}, sessionTTLCache.Stop
}

func (s *Store) getOrCreate(playerUUID string) *session {
	eval := evaluator.New(s.newNotifier(playerUUID))
	eval.Configure(s.thresholds)

	item, _ := s.sessions.GetOrSet(playerUUID, &session{eval: eval})
	return item.Value()
}

// WithSession runs fn with the player's evaluator under the session lock.
func (s *Store) WithSession(playerUUID string, fn func(eval *evaluator.Evaluator)) {
	session := s.getOrCreate(playerUUID)

	session.mutex.Lock()
	defer session.mutex.Unlock()

	fn(session.eval)
}

// Dispatched returns the achievement ids dispatched in the player's
// current session. A player without a live session has dispatched nothing.
func (s *Store) Dispatched(playerUUID string) []string {
	item := s.sessions.Get(playerUUID)
	if item == nil {
		return nil
	}
	session := item.Value()

	session.mutex.Lock()
	defer session.mutex.Unlock()

	return session.eval.Dispatched()
}

// Reset clears the player's dispatched set, starting a new session.
func (s *Store) Reset(playerUUID string) {
	s.WithSession(playerUUID, func(eval *evaluator.Evaluator) {
		eval.Reset()
	})
}
