package hook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"liquidityLaunch/internal/model"
)

// Record is the release state of one pool.
// Custody is the ledger account that holds the pool's tokens and owns its
// position, so pools sharing a currency never touch each other's funds.
type Record struct {
	Key      model.PoolKey
	Custody  common.Address
	Schedule model.Schedule
	Progress model.Progress
}

func (r *Record) clone() *Record {
	return &Record{Key: r.Key, Custody: r.Custody, Schedule: r.Schedule.Clone(), Progress: r.Progress.Clone()}
}

// CustodyAddress derives the per-pool custody account of a hook.
func CustodyAddress(hook common.Address, id model.PoolID) common.Address {
	return common.BytesToAddress(crypto.Keccak256(hook.Bytes(), id.Bytes())[12:])
}

// Store keeps one record per pool. It is owned by a single Hook.
type Store struct {
	records map[model.PoolID]*Record
	order   []model.PoolID
}

func NewStore() *Store {
	return &Store{records: make(map[model.PoolID]*Record)}
}

func (s *Store) Get(id model.PoolID) (*Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

func (s *Store) Create(rec *Record) error {
	id := rec.Key.ID()
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, id.Hex())
	}
	s.records[id] = rec
	s.order = append(s.order, id)
	return nil
}

// Pools lists pool ids in creation order.
func (s *Store) Pools() []model.PoolID {
	out := make([]model.PoolID, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) clone() *Store {
	out := &Store{
		records: make(map[model.PoolID]*Record, len(s.records)),
		order:   append([]model.PoolID(nil), s.order...),
	}
	for id, rec := range s.records {
		out.records[id] = rec.clone()
	}
	return out
}
