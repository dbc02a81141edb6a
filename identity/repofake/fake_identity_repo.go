package repofake

import (
	"context"
	"sync"

	"github.com/figstack/go-figma-gateway/identity"
)

var _ identity.Repo = (*FakeIdentityRepo)(nil)

type FakeIdentityRepo struct {
	lock       sync.RWMutex
	identities map[string]*identity.Identity // keyed by external id
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{identities: make(map[string]*identity.Identity)}
}

func (ir *FakeIdentityRepo) Upsert(_ context.Context, ident *identity.Identity) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	cp := *ident
	ir.identities[ident.ExternalID] = &cp
	return nil
}

func (ir *FakeIdentityRepo) GetByExternalID(_ context.Context, externalID string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	ident, ok := ir.identities[externalID]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *ident
	return &cp, nil
}
