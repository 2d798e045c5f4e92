// internal/repository/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/repository"
	"peerpay/internal/util"
)

// Store is the in-memory storage backend. It is the default driver: the
// application does not promise accounts survive a restart. All access goes
// through one mutex; WithinTx works on a deep copy of the state and swaps
// it in on success, so a failed operation leaves nothing behind.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Accounts() repository.AccountRepository    { return accountRepo{s} }
func (s *Store) Activities() repository.ActivityRepository { return activityRepo{s} }
func (s *Store) Friends() repository.FriendRepository      { return friendRepo{s} }

// WithinTx executes fn against a copy of the current state. The copy
// replaces the live state only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// txStore is the view of the store handed to a WithinTx callback. It is
// only ever used under the owning Store's lock, so its repositories touch
// the working state directly.
type txStore struct {
	st *state
}

func (t *txStore) Accounts() repository.AccountRepository    { return txAccountRepo{t.st} }
func (t *txStore) Activities() repository.ActivityRepository { return txActivityRepo{t.st} }
func (t *txStore) Friends() repository.FriendRepository      { return txFriendRepo{t.st} }

// WithinTx on an already-transactional view just runs fn; the enclosing
// transaction decides the outcome.
func (t *txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return fn(ctx, t)
}

// state holds the actual data. Methods on state assume the caller holds
// whatever lock protects it.
type state struct {
	accounts   map[string]*domain.Account
	activities []domain.Activity
	friends    map[string]map[string]struct{}
	seq        int64
}

func newState() *state {
	return &state{
		accounts: make(map[string]*domain.Account),
		friends:  make(map[string]map[string]struct{}),
	}
}

func (st *state) clone() *state {
	cp := &state{
		accounts:   make(map[string]*domain.Account, len(st.accounts)),
		activities: make([]domain.Activity, len(st.activities)),
		friends:    make(map[string]map[string]struct{}, len(st.friends)),
		seq:        st.seq,
	}
	for username, account := range st.accounts {
		a := *account
		if account.CreditCardNumber != nil {
			card := *account.CreditCardNumber
			a.CreditCardNumber = &card
		}
		cp.accounts[username] = &a
	}
	copy(cp.activities, st.activities)
	for username, set := range st.friends {
		fs := make(map[string]struct{}, len(set))
		for friend := range set {
			fs[friend] = struct{}{}
		}
		cp.friends[username] = fs
	}
	return cp
}

func (st *state) createAccount(account *domain.Account) error {
	if _, ok := st.accounts[account.Username]; ok {
		return util.ErrDuplicateUsername
	}
	a := *account
	st.accounts[account.Username] = &a
	return nil
}

func (st *state) getAccount(username string) (*domain.Account, error) {
	account, ok := st.accounts[username]
	if !ok {
		return nil, util.ErrAccountNotFound
	}
	a := *account
	if account.CreditCardNumber != nil {
		card := *account.CreditCardNumber
		a.CreditCardNumber = &card
	}
	return &a, nil
}

func (st *state) updateBalance(username string, delta decimal.Decimal) error {
	account, ok := st.accounts[username]
	if !ok {
		return util.ErrAccountNotFound
	}
	next := account.Balance.Add(delta)
	if next.IsNegative() {
		return util.ErrInsufficientBalance
	}
	account.Balance = next
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (st *state) setCreditCard(username, cardNumber string) error {
	account, ok := st.accounts[username]
	if !ok {
		return util.ErrAccountNotFound
	}
	if account.CreditCardNumber != nil {
		return util.ErrCardAlreadySet
	}
	card := cardNumber
	account.CreditCardNumber = &card
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (st *state) appendActivity(activity *domain.Activity) error {
	st.seq++
	activity.Seq = st.seq
	st.activities = append(st.activities, *activity)
	return nil
}

func (st *state) listByAccount(username string) []domain.Activity {
	out := []domain.Activity{}
	for _, a := range st.activities {
		if a.Actor == username || a.Target == username {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (st *state) addFriendship(a, b string) error {
	if _, ok := st.accounts[a]; !ok {
		return util.ErrAccountNotFound
	}
	if _, ok := st.accounts[b]; !ok {
		return util.ErrAccountNotFound
	}
	if st.friends[a] == nil {
		st.friends[a] = make(map[string]struct{})
	}
	if st.friends[b] == nil {
		st.friends[b] = make(map[string]struct{})
	}
	st.friends[a][b] = struct{}{}
	st.friends[b][a] = struct{}{}
	return nil
}

func (st *state) areFriends(a, b string) bool {
	_, ok := st.friends[a][b]
	return ok
}

func (st *state) listFriends(username string) []string {
	out := make([]string, 0, len(st.friends[username]))
	for friend := range st.friends[username] {
		out = append(out, friend)
	}
	sort.Strings(out)
	return out
}

// Locking repository views used outside a transaction.

type accountRepo struct{ s *Store }

func (r accountRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.createAccount(account)
}

func (r accountRepo) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.getAccount(username)
}

func (r accountRepo) UpdateBalance(ctx context.Context, username string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.updateBalance(username, delta)
}

func (r accountRepo) SetCreditCard(ctx context.Context, username, cardNumber string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.setCreditCard(username, cardNumber)
}

type activityRepo struct{ s *Store }

func (r activityRepo) AppendActivity(ctx context.Context, activity *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.appendActivity(activity)
}

func (r activityRepo) ListByAccount(ctx context.Context, username string) ([]domain.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.listByAccount(username), nil
}

type friendRepo struct{ s *Store }

func (r friendRepo) AddFriendship(ctx context.Context, a, b string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.addFriendship(a, b)
}

func (r friendRepo) AreFriends(ctx context.Context, a, b string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.areFriends(a, b), nil
}

func (r friendRepo) ListFriends(ctx context.Context, username string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.st.listFriends(username), nil
}

// Repository views used inside a transaction; the store lock is already held.

type txAccountRepo struct{ st *state }

func (r txAccountRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.st.createAccount(account)
}

func (r txAccountRepo) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.st.getAccount(username)
}

func (r txAccountRepo) UpdateBalance(ctx context.Context, username string, delta decimal.Decimal) error {
	return r.st.updateBalance(username, delta)
}

func (r txAccountRepo) SetCreditCard(ctx context.Context, username, cardNumber string) error {
	return r.st.setCreditCard(username, cardNumber)
}

type txActivityRepo struct{ st *state }

func (r txActivityRepo) AppendActivity(ctx context.Context, activity *domain.Activity) error {
	return r.st.appendActivity(activity)
}

func (r txActivityRepo) ListByAccount(ctx context.Context, username string) ([]domain.Activity, error) {
	return r.st.listByAccount(username), nil
}

type txFriendRepo struct{ st *state }

func (r txFriendRepo) AddFriendship(ctx context.Context, a, b string) error {
	return r.st.addFriendship(a, b)
}

func (r txFriendRepo) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return r.st.areFriends(a, b), nil
}

func (r txFriendRepo) ListFriends(ctx context.Context, username string) ([]string, error) {
	return r.st.listFriends(username), nil
}
