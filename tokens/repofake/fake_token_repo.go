package repofake

import (
	"context"
	"sync"

	"github.com/figstack/go-figma-gateway/tokens"
)

var _ tokens.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	lock    sync.RWMutex
	records map[string]*tokens.Record // keyed by user id
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{records: make(map[string]*tokens.Record)}
}

func (tr *FakeTokenRepo) Upsert(_ context.Context, record *tokens.Record) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	cp := *record
	tr.records[record.UserID] = &cp
	return nil
}

func (tr *FakeTokenRepo) Get(_ context.Context, userID string) (*tokens.Record, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	record, ok := tr.records[userID]
	if !ok {
		return nil, tokens.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context, userID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	delete(tr.records, userID)
	return nil
}

// Count reports how many live records exist. Test helper.
func (tr *FakeTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.records)
}
