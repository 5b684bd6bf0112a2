package session

import (
	"context"
	"errors"
	"sync"

	"github.com/famledger/famledger/pkg/ledger"
	"github.com/famledger/famledger/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrNoSession = errors.New("no active session, sign in first")

// ManagerFactory builds the ledger manager of a freshly signed-in user.
type ManagerFactory func(u user.User) *ledger.Manager

// Registry holds one ledger session per signed-in user.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*liveSession
	newManager ManagerFactory
}

// liveSession is handed out only once loaded is closed, so no caller can add
// to a ledger that Load is about to replace.
type liveSession struct {
	manager *ledger.Manager
	loaded  chan struct{}
}

func NewRegistry(newManager ManagerFactory) *Registry {
	return &Registry{
		sessions:   make(map[string]*liveSession),
		newManager: newManager,
	}
}

// SignIn returns the live session of the user, creating and loading it when
// there is none. A concurrent sign-in of the same user waits for the first
// load to finish.
func (r *Registry) SignIn(ctx context.Context, u user.User) *ledger.Manager {
	r.mu.Lock()
	if s, ok := r.sessions[u.Uid]; ok {
		r.mu.Unlock()
		log.Debugf("user %s already signed in", u.Uid)
		<-s.loaded
		return s.manager
	}
	s := &liveSession{manager: r.newManager(u), loaded: make(chan struct{})}
	r.sessions[u.Uid] = s
	r.mu.Unlock()

	log.Infof("user %s signed in", u.Uid)
	defer close(s.loaded)
	s.manager.Load(ctx)
	return s.manager
}

// Get returns the session of the user once its ledger is loaded.
func (r *Registry) Get(uid string) (*ledger.Manager, error) {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	<-s.loaded
	return s.manager, nil
}

// SignOut closes the session of the user. It reports whether one existed.
func (r *Registry) SignOut(uid string) bool {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.manager.Close()
	log.Infof("user %s signed out", uid)
	return true
}
