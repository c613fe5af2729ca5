package pageconfig

import "sync/atomic"

// Store holds the current Config for a watch session. Builders read it on
// every render while the page config watcher swaps in a fresh copy.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a Store holding cfg.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Get returns the current Config.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Reload re-reads the file behind the current Config. On failure the
// previous Config stays in place and the error is returned.
func (s *Store) Reload() (*Config, error) {
	path := s.Get().Path

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cfg)

	return cfg, nil
}
