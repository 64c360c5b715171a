// Package studio holds the view state of the content studio: which tab is
// active and the cached remote lists it renders. It performs no I/O.
package studio

import "contentgen/internal/model"

type State struct {
	Active  Tab
	Scripts Slot[[]model.Script]
	Jobs    JobBoard
	Videos  Slot[[]model.Video]
	Config  Slot[model.BackendConfig]
}

func NewState() *State {
	return &State{Active: TabUpload}
}

// StartupFetches is the initial burst: every list once.
func StartupFetches() []Resource {
	return append([]Resource(nil), Resources...)
}

// SwitchTab activates t and returns the fetches entering it requires.
// Re-selecting the active tab refreshes it again.
func (s *State) SwitchTab(t Tab) []Resource {
	s.Active = t
	return FetchesOnEnter(t)
}

// TickFetches is what a poll tick should request: the job list while the jobs
// tab is visible, nothing otherwise.
func (s *State) TickFetches() []Resource {
	if s.Active == TabJobs {
		return []Resource{ResourceJobs}
	}
	return nil
}

// Begin issues a generation for r.
func (s *State) Begin(r Resource) uint64 {
	switch r {
	case ResourceScripts:
		return s.Scripts.Begin()
	case ResourceJobs:
		return s.Jobs.Begin()
	case ResourceVideos:
		return s.Videos.Begin()
	case ResourceConfig:
		return s.Config.Begin()
	default:
		return 0
	}
}

// Loading reports whether the list behind the active tab has an unanswered
// fetch.
func (s *State) Loading() bool {
	switch s.Active {
	case TabScripts:
		return s.Scripts.Pending()
	case TabJobs:
		return s.Jobs.Pending()
	case TabVideos:
		return s.Videos.Pending()
	case TabConfig:
		return s.Config.Pending()
	default:
		return false
	}
}
