// Package iocache persists normalized matrices and ranking run history.
package iocache

import (
	"sync"

	"github.com/huangsam/foothold/internal/contract"
)

// CacheStoreManager manages the matrix cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	matrix       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetMatrixStore returns the normalized matrix CacheStore.
func (mgr *CacheStoreManager) GetMatrixStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.matrix
}

// GetRunStore returns the ranking RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
