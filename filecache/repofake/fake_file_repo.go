package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/figstack/go-figma-gateway/filecache"
)

var _ filecache.Repo = (*FakeFileRepo)(nil)

type FakeFileRepo struct {
	lock    sync.RWMutex
	entries map[string]map[string]*filecache.Entry // userID -> fileKey -> entry
}

func NewFakeFileRepo() *FakeFileRepo {
	return &FakeFileRepo{entries: make(map[string]map[string]*filecache.Entry)}
}

func (fr *FakeFileRepo) Upsert(_ context.Context, entry *filecache.Entry) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if _, ok := fr.entries[entry.UserID]; !ok {
		fr.entries[entry.UserID] = make(map[string]*filecache.Entry)
	}
	cp := *entry
	// The bookmark flag is owned by SetBookmarked and survives metadata
	// refreshes, matching the durable store.
	if existing, ok := fr.entries[entry.UserID][entry.FileKey]; ok {
		cp.Bookmarked = existing.Bookmarked
	}
	fr.entries[entry.UserID][entry.FileKey] = &cp
	return nil
}

func (fr *FakeFileRepo) Get(_ context.Context, userID, fileKey string) (*filecache.Entry, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	entry, ok := fr.entries[userID][fileKey]
	if !ok {
		return nil, filecache.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (fr *FakeFileRepo) ListRecent(_ context.Context, userID string, limit int) ([]*filecache.Entry, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	var list []*filecache.Entry
	for _, entry := range fr.entries[userID] {
		cp := *entry
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastAccessedAt.After(list[j].LastAccessedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (fr *FakeFileRepo) SetBookmarked(_ context.Context, userID, fileKey string, bookmarked bool) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	entry, ok := fr.entries[userID][fileKey]
	if !ok {
		return filecache.ErrNotFound
	}
	entry.Bookmarked = bookmarked
	return nil
}
