package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tuitionpay/escrowhub/db/models"
)

type holderKey struct {
	token  string
	holder string
}

type allowanceKey struct {
	token   string
	owner   string
	spender string
}

type memoryTxKey struct{}

type memoryTx struct {
	store *MemoryStore
	undo  []func()
}

// MemoryStore keeps everything in process memory.
// A transaction holds the store lock until it commits or rolls back,
// so transactions are applied one after another.
type MemoryStore struct {
	mu sync.Mutex

	ledger       *models.LedgerState
	payments     map[int64]*models.Payment
	byPayer      map[string][]int64
	byUniversity map[string][]int64
	events       []models.LedgerEvent
	lastEventID  int64

	tokens     map[string]*models.Token
	balances   map[holderKey]int64
	allowances map[allowanceKey]int64
	claims     map[holderKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:     map[int64]*models.Payment{},
		byPayer:      map[string][]int64{},
		byUniversity: map[string][]int64{},
		tokens:       map[string]*models.Token{},
		balances:     map[holderKey]int64{},
		allowances:   map[allowanceKey]int64{},
		claims:       map[holderKey]time.Time{},
	}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.txFromContext(ctx) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
		if err != nil {
			tx.rollback()
		}
	}()
	return fn(context.WithValue(ctx, memoryTxKey{}, tx))
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (s *MemoryStore) txFromContext(ctx context.Context) *memoryTx {
	tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// access runs fn under the store lock unless ctx already carries one of its
// transactions. The returned record function registers an undo step.
func (s *MemoryStore) access(ctx context.Context, fn func(record func(undo func())) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx := s.txFromContext(ctx); tx != nil {
		return fn(func(undo func()) { tx.undo = append(tx.undo, undo) })
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(func(func()) {})
}

func (s *MemoryStore) LoadLedgerState(ctx context.Context) (*models.LedgerState, error) {
	var state *models.LedgerState
	err := s.access(ctx, func(func(func())) error {
		if s.ledger == nil {
			return ErrNotFound
		}
		copied := *s.ledger
		state = &copied
		return nil
	})
	return state, err
}

func (s *MemoryStore) SaveLedgerState(ctx context.Context, state *models.LedgerState) error {
	return s.access(ctx, func(record func(func())) error {
		previous := s.ledger
		record(func() { s.ledger = previous })
		if state.ID == 0 {
			state.ID = 1
			state.CreatedAt = time.Now()
		}
		copied := *state
		s.ledger = &copied
		return nil
	})
}

func (s *MemoryStore) InsertPayment(ctx context.Context, payment *models.Payment) error {
	return s.access(ctx, func(record func(func())) error {
		if _, ok := s.payments[payment.ID]; ok {
			return fmt.Errorf("payment %d already exists", payment.ID)
		}
		copied := *payment
		s.payments[payment.ID] = &copied
		s.byPayer[payment.Payer] = append(s.byPayer[payment.Payer], payment.ID)
		s.byUniversity[payment.University] = append(s.byUniversity[payment.University], payment.ID)
		record(func() {
			delete(s.payments, payment.ID)
			s.byPayer[copied.Payer] = s.byPayer[copied.Payer][:len(s.byPayer[copied.Payer])-1]
			s.byUniversity[copied.University] = s.byUniversity[copied.University][:len(s.byUniversity[copied.University])-1]
		})
		return nil
	})
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	return s.access(ctx, func(record func(func())) error {
		previous, ok := s.payments[payment.ID]
		if !ok {
			return ErrNotFound
		}
		record(func() { s.payments[payment.ID] = previous })
		copied := *payment
		s.payments[payment.ID] = &copied
		return nil
	})
}

func (s *MemoryStore) FindPayment(ctx context.Context, id int64) (*models.Payment, error) {
	var payment *models.Payment
	err := s.access(ctx, func(func(func())) error {
		found, ok := s.payments[id]
		if !ok {
			return ErrNotFound
		}
		copied := *found
		payment = &copied
		return nil
	})
	return payment, err
}

func (s *MemoryStore) PaymentIDsByPayer(ctx context.Context, payer string) ([]int64, error) {
	ids := []int64{}
	err := s.access(ctx, func(func(func())) error {
		ids = append(ids, s.byPayer[payer]...)
		return nil
	})
	return ids, err
}

func (s *MemoryStore) PaymentIDsByUniversity(ctx context.Context, university string) ([]int64, error) {
	ids := []int64{}
	err := s.access(ctx, func(func(func())) error {
		ids = append(ids, s.byUniversity[university]...)
		return nil
	})
	return ids, err
}

func (s *MemoryStore) SumByStatus(ctx context.Context) (map[string]StatusTotal, error) {
	totals := map[string]StatusTotal{}
	err := s.access(ctx, func(func(func())) error {
		for _, payment := range s.payments {
			total := totals[payment.Status]
			total.Count++
			total.Amount += payment.Amount
			totals[payment.Status] = total
		}
		return nil
	})
	return totals, err
}

func (s *MemoryStore) InsertEvent(ctx context.Context, event *models.LedgerEvent) error {
	return s.access(ctx, func(record func(func())) error {
		s.lastEventID++
		event.ID = s.lastEventID
		s.events = append(s.events, *event)
		record(func() {
			s.events = s.events[:len(s.events)-1]
			s.lastEventID--
		})
		return nil
	})
}

func (s *MemoryStore) EventsForPayment(ctx context.Context, paymentID int64) ([]models.LedgerEvent, error) {
	events := []models.LedgerEvent{}
	err := s.access(ctx, func(func(func())) error {
		for _, event := range s.events {
			if event.PaymentID != nil && *event.PaymentID == paymentID {
				events = append(events, event)
			}
		}
		return nil
	})
	return events, err
}

func (s *MemoryStore) EventsAfter(ctx context.Context, afterID int64, limit int) ([]models.LedgerEvent, error) {
	events := []models.LedgerEvent{}
	err := s.access(ctx, func(func(func())) error {
		for _, event := range s.events {
			if len(events) == limit {
				break
			}
			if event.ID > afterID {
				events = append(events, event)
			}
		}
		return nil
	})
	return events, err
}

func (s *MemoryStore) LastEventID(ctx context.Context) (int64, error) {
	var id int64
	err := s.access(ctx, func(func(func())) error {
		id = s.lastEventID
		return nil
	})
	return id, err
}

func (s *MemoryStore) LoadToken(ctx context.Context, address string) (*models.Token, error) {
	var token *models.Token
	err := s.access(ctx, func(func(func())) error {
		found, ok := s.tokens[address]
		if !ok {
			return ErrNotFound
		}
		copied := *found
		token = &copied
		return nil
	})
	return token, err
}

func (s *MemoryStore) SaveToken(ctx context.Context, token *models.Token) error {
	return s.access(ctx, func(record func(func())) error {
		previous, existed := s.tokens[token.Address]
		record(func() {
			if existed {
				s.tokens[token.Address] = previous
			} else {
				delete(s.tokens, token.Address)
			}
		})
		copied := *token
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = time.Now()
		}
		s.tokens[token.Address] = &copied
		return nil
	})
}

func (s *MemoryStore) TokenBalance(ctx context.Context, token, holder string) (int64, error) {
	var balance int64
	err := s.access(ctx, func(func(func())) error {
		balance = s.balances[holderKey{token, holder}]
		return nil
	})
	return balance, err
}

func (s *MemoryStore) SetTokenBalance(ctx context.Context, token, holder string, balance int64) error {
	return s.access(ctx, func(record func(func())) error {
		key := holderKey{token, holder}
		previous, existed := s.balances[key]
		record(func() {
			if existed {
				s.balances[key] = previous
			} else {
				delete(s.balances, key)
			}
		})
		s.balances[key] = balance
		return nil
	})
}

func (s *MemoryStore) TokenAllowance(ctx context.Context, token, owner, spender string) (int64, error) {
	var amount int64
	err := s.access(ctx, func(func(func())) error {
		amount = s.allowances[allowanceKey{token, owner, spender}]
		return nil
	})
	return amount, err
}

func (s *MemoryStore) SetTokenAllowance(ctx context.Context, token, owner, spender string, amount int64) error {
	return s.access(ctx, func(record func(func())) error {
		key := allowanceKey{token, owner, spender}
		previous, existed := s.allowances[key]
		record(func() {
			if existed {
				s.allowances[key] = previous
			} else {
				delete(s.allowances, key)
			}
		})
		s.allowances[key] = amount
		return nil
	})
}

func (s *MemoryStore) LastFaucetClaim(ctx context.Context, token, holder string) (time.Time, bool, error) {
	var (
		claimedAt time.Time
		found     bool
	)
	err := s.access(ctx, func(func(func())) error {
		claimedAt, found = s.claims[holderKey{token, holder}]
		return nil
	})
	return claimedAt, found, err
}

func (s *MemoryStore) SetFaucetClaim(ctx context.Context, token, holder string, claimedAt time.Time) error {
	return s.access(ctx, func(record func(func())) error {
		key := holderKey{token, holder}
		previous, existed := s.claims[key]
		record(func() {
			if existed {
				s.claims[key] = previous
			} else {
				delete(s.claims, key)
			}
		})
		s.claims[key] = claimedAt
		return nil
	})
}

var _ Store = (*MemoryStore)(nil)
