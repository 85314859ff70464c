package server

import "sync"

// DefaultCommitFormat is the commit message template advertised to clients
// that do not send their own during initialize.
const DefaultCommitFormat = `<type>[optional scope]: <english description>

[English body]

[Chinese body]

Log: [short description of the change use chinese language]
PMS: <BUG-number>(for bugfix) or <TASK-number>(for add feature) (Must include 'BUG-' or 'TASK-', If the user does not provide a number, remove this line.)
Influence: Explain in Chinese the potential impact of this submission.`

// Configuration is a snapshot of the server's runtime configuration.
type Configuration struct {
	CommitFormat string
}

// Settings holds the runtime configuration shared by all requests.
// It is safe for concurrent use.
type Settings struct {
	mu  sync.RWMutex
	cfg Configuration
}

// NewSettings returns Settings starting at commitFormat, or at
// DefaultCommitFormat when commitFormat is empty.
func NewSettings(commitFormat string) *Settings {
	if commitFormat == "" {
		commitFormat = DefaultCommitFormat
	}
	return &Settings{cfg: Configuration{CommitFormat: commitFormat}}
}

// Get returns a copy of the current configuration.
func (s *Settings) Get() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetCommitFormat replaces the commit message template.
func (s *Settings) SetCommitFormat(format string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.CommitFormat = format
}
