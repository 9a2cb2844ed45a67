package auth

import (
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// The registry holds one AuthorizationClient per distinct auth endpoint
// for the lifetime of the process. Repeat constructions with the same
// auth endpoint return the existing instance; only the first caller's
// options take effect.
var (
	registryMu    sync.RWMutex
	registry      = make(map[string]*AuthorizationClient)
	registryGroup singleflight.Group
)

// New resolves an AuthorizationClient through the registry, constructing
// one with fresh parameters only when none exists for opts.AuthEndpoint.
// Concurrent first constructions for the same endpoint are deduplicated.
func New(opts Options) (*AuthorizationClient, error) {
	if opts.AuthEndpoint == "" {
		return nil, errors.New("auth endpoint is required")
	}

	registryMu.RLock()
	if client, ok := registry[opts.AuthEndpoint]; ok {
		registryMu.RUnlock()
		return client, nil
	}
	registryMu.RUnlock()

	result, err, _ := registryGroup.Do(opts.AuthEndpoint, func() (interface{}, error) {
		// Double-check after winning the singleflight slot.
		registryMu.RLock()
		if client, ok := registry[opts.AuthEndpoint]; ok {
			registryMu.RUnlock()
			return client, nil
		}
		registryMu.RUnlock()

		client, err := newAuthorizationClient(opts)
		if err != nil {
			return nil, err
		}

		registryMu.Lock()
		registry[opts.AuthEndpoint] = client
		registryMu.Unlock()

		return client, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*AuthorizationClient), nil
}

// ClearRegistry drops all registered clients. Intended for tests.
func ClearRegistry() {
	registryMu.Lock()
	registry = make(map[string]*AuthorizationClient)
	registryMu.Unlock()
}
