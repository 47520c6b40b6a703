package flow

import (
	"fmt"
	"sync"

	apperrors "github.com/getmentor/authflow/pkg/errors"
)

// Tab is a section of the main shell shown after sign-in
type Tab string

const (
	TabHome     Tab = "Home"
	TabMessages Tab = "Messages"
	TabProfile  Tab = "Profile"
)

// Tabs lists the shell tabs in display order
func Tabs() []Tab {
	return []Tab{TabHome, TabMessages, TabProfile}
}

// TabShell tracks the selected tab of the Main screen
type TabShell struct {
	mu       sync.Mutex
	selected Tab
}

// NewTabShell opens on Home
func NewTabShell() *TabShell {
	return &TabShell{selected: TabHome}
}

// Selected returns the active tab
func (s *TabShell) Selected() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select switches to tab
func (s *TabShell) Select(tab Tab) error {
	for _, t := range Tabs() {
		if t == tab {
			s.mu.Lock()
			s.selected = tab
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: unknown tab %q", apperrors.ErrNotFound, tab)
}
