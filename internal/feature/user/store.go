package user

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/domain"
	"go-gin-mock-users/internal/repo"
)

const (
	DefaultLatency     = 800 * time.Millisecond
	DefaultFailureRate = 0.1

	FetchErrorMessage = "Failed to load users. Please try again."
)

var ErrFetchFailed = errors.New(FetchErrorMessage)

// Rand is the randomness source used for failure injection. *rand.Rand satisfies it.
type Rand interface{ Float64() float64 }

type Options struct {
	Latency     time.Duration // simulated fetch delay; 0 disables it
	FailureRate float64       // probability in [0,1] that a fetch fails
	Rand        Rand
	Now         func() time.Time
	Logger      *zap.Logger
	IDStrategy  IDStrategy
	Observer    Observer
}

func DefaultOptions() Options {
	return Options{
		Latency:     DefaultLatency,
		FailureRate: DefaultFailureRate,
		IDStrategy:  IDFromLength,
	}
}

// Snapshot is a copy of the store's observable state.
type Snapshot struct {
	Users   []domain.User `json:"users"`
	Loading bool          `json:"loading"`
	Error   *string       `json:"error"`
}

// Store is the mock user backend: a seeded in-memory list with simulated
// latency and random fetch failures. Reads always return copies.
type Store struct {
	opts     Options
	instance string

	mu      sync.RWMutex
	users   *repo.UserRepo
	loading bool
	errMsg  string
	version uint64
	seq     int
	gen     uint64 // bumped on every published change

	rngMu sync.Mutex

	notifyMu sync.Mutex
	notified uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

var _ domain.UserStore = (*Store)(nil)

func NewStore(opts Options) *Store {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IDStrategy == "" {
		opts.IDStrategy = IDFromLength
	}
	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}
	opts.FailureRate = min(max(opts.FailureRate, 0), 1)

	seed := SeedUsers()
	s := &Store{
		opts:     opts,
		instance: uuid.NewString(),
		users:    repo.NewUserRepo(seed),
		seq:      len(seed),
		subs:     make(map[int]func(Snapshot)),
	}
	opts.Observer.OnChange(s.Snapshot())
	return s
}

type change int

const (
	changeNone change = iota
	changeState
	changeUsers
)

// commit runs fn under the write lock and then notifies the observer and
// subscribers outside of it. Deliveries are ordered by generation; a
// snapshot overtaken by a newer one is dropped.
func (s *Store) commit(fn func() change) {
	s.mu.Lock()
	c := fn()
	if c == changeNone {
		s.mu.Unlock()
		return
	}
	if c == changeUsers {
		s.version++
	}
	s.gen++
	gen := s.gen
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if gen <= s.notified {
		return
	}
	s.notified = gen

	s.opts.Observer.OnChange(snap)
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.subMu.Unlock()
	for _, f := range fns {
		f(snap)
	}
}

// FetchUsers simulates a refresh from the backend. The user list is never
// touched; only loading and error change.
func (s *Store) FetchUsers(ctx context.Context) error {
	start := time.Now()
	s.commit(func() change {
		s.loading = true
		s.errMsg = ""
		return changeState
	})

	if err := s.wait(ctx); err != nil {
		s.commit(func() change {
			s.loading = false
			return changeState
		})
		s.opts.Logger.Debug("mock: fetch cancelled", zap.Error(err))
		return err
	}

	failed := s.roll()
	s.commit(func() change {
		if failed {
			s.errMsg = FetchErrorMessage
		}
		s.loading = false
		return changeState
	})
	s.opts.Observer.OnFetch(failed, time.Since(start))

	if failed {
		s.opts.Logger.Warn("mock: fetch users failed", zap.Float64("failure_rate", s.opts.FailureRate))
		return ErrFetchFailed
	}
	s.opts.Logger.Debug("mock: fetched users", zap.Duration("latency", time.Since(start)))
	return nil
}

func (s *Store) wait(ctx context.Context) error {
	if s.opts.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.opts.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Store) roll() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.opts.Rand.Float64() < s.opts.FailureRate
}

// CreateUser appends a record with a store-assigned id and createdAt.
// In production: POST /api/users.
func (s *Store) CreateUser(_ context.Context, in domain.NewUser) (domain.Result, error) {
	s.opts.Logger.Info("mock: creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	var created domain.User
	s.commit(func() change {
		s.seq++
		created = domain.User{
			ID:          s.opts.IDStrategy.next(s.users.Len(), s.seq),
			Name:        in.Name,
			Email:       in.Email,
			Avatar:      in.Avatar,
			Role:        in.Role,
			Status:      in.Status,
			CreatedAt:   s.opts.Now().UTC().Truncate(time.Millisecond),
			LastLogin:   in.LastLogin,
			Preferences: in.Preferences,
			Stats:       in.Stats,
		}
		s.users.Create(created)
		return changeUsers
	})
	s.opts.Observer.OnCreate(created.ID)
	return domain.Result{Success: true, User: &created}, nil
}

// UpdateUser merge-patches the record with id. An unknown id is a silent
// no-op and still reports success. In production: PATCH /api/users/{id}.
func (s *Store) UpdateUser(_ context.Context, id string, patch domain.UserPatch) (domain.Result, error) {
	s.opts.Logger.Info("mock: updating user", zap.String("id", id), zap.Any("patch", patch))

	found := false
	s.commit(func() change {
		u, ok := s.users.FindByID(id)
		if !ok {
			return changeNone
		}
		found = s.users.Replace(patch.Apply(u))
		return changeUsers
	})
	s.opts.Observer.OnUpdate(id, found)
	return domain.Result{Success: true}, nil
}

// DeleteUser removes every record with id. In production: DELETE /api/users/{id}.
func (s *Store) DeleteUser(_ context.Context, id string) (domain.Result, error) {
	s.opts.Logger.Info("mock: deleting user", zap.String("id", id))

	removed := 0
	s.commit(func() change {
		removed = s.users.Delete(id)
		if removed == 0 {
			return changeNone
		}
		return changeUsers
	})
	s.opts.Observer.OnDelete(id, removed)
	return domain.Result{Success: true}, nil
}

func (s *Store) GetUser(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.FindByID(id)
}

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.List()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the current fetch error message, or "" when there is none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Users: s.users.List(), Loading: s.loading}
	if s.errMsg != "" {
		msg := s.errMsg
		snap.Error = &msg
	}
	return snap
}

// Instance identifies this store for the lifetime of the process. Versions
// restart at zero in every instance.
func (s *Store) Instance() string { return s.instance }

// Version increases on every change to the user list.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) ActiveUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.Filter(func(u domain.User) bool { return u.Status == domain.StatusActive })
}

func (s *Store) UsersByRole() domain.ByRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ByRole{
		Admin: s.users.Filter(func(u domain.User) bool { return u.Role == domain.RoleAdmin }),
		User:  s.users.Filter(func(u domain.User) bool { return u.Role == domain.RoleUser }),
	}
}

// Reset restores the seed data and clears loading and error.
func (s *Store) Reset() {
	s.opts.Logger.Info("mock: resetting users")
	s.commit(func() change {
		seed := SeedUsers()
		s.users.Reset(seed)
		s.seq = len(seed)
		s.loading = false
		s.errMsg = ""
		return changeUsers
	})
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change. It must not block or
// mutate the store. Under concurrent changes fn may skip a snapshot, but
// never receives one older than the last it saw.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}
