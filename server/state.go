package server

import "sync"

// State is the per-process mutable configuration the frontend pushes in:
// seed URLs, key overrides and the demo flag. One instance is shared by
// every request handler; there are no package-level globals.
type State struct {
	mu           sync.RWMutex
	urls         []string
	demoMode     bool
	firecrawlKey string
}

func NewState() *State {
	return &State{}
}

func (s *State) SetURLs(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append([]string(nil), urls...)
	if len(urls) > 0 {
		// Fresh URLs invalidate any previous demo session
		s.demoMode = false
	}
}

func (s *State) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.urls...)
}

func (s *State) SetDemoMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoMode = on
}

func (s *State) DemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoMode
}

func (s *State) SetFirecrawlKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firecrawlKey = key
}

func (s *State) FirecrawlKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firecrawlKey
}
