package studio

import (
	"fmt"
	"strings"
)

type Tab int

const (
	TabUpload Tab = iota
	TabScripts
	TabJobs
	TabVideos
	TabConfig
)

var Tabs = []Tab{TabUpload, TabScripts, TabJobs, TabVideos, TabConfig}

func (t Tab) String() string {
	switch t {
	case TabUpload:
		return "upload"
	case TabScripts:
		return "scripts"
	case TabJobs:
		return "jobs"
	case TabVideos:
		return "videos"
	case TabConfig:
		return "config"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

func ParseTab(raw string) (Tab, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for _, t := range Tabs {
		if t.String() == name {
			return t, nil
		}
	}
	return TabUpload, fmt.Errorf("unknown tab %q", raw)
}

// Next cycles forward through Tabs.
func (t Tab) Next() Tab {
	return Tabs[(t.index()+1)%len(Tabs)]
}

func (t Tab) Prev() Tab {
	return Tabs[(t.index()+len(Tabs)-1)%len(Tabs)]
}

func (t Tab) index() int {
	for i, tab := range Tabs {
		if tab == t {
			return i
		}
	}
	return 0
}

// Resource is one remotely owned list.
type Resource int

const (
	ResourceScripts Resource = iota
	ResourceJobs
	ResourceVideos
	ResourceConfig
)

var Resources = []Resource{ResourceScripts, ResourceJobs, ResourceVideos, ResourceConfig}

func (r Resource) String() string {
	switch r {
	case ResourceScripts:
		return "scripts"
	case ResourceJobs:
		return "jobs"
	case ResourceVideos:
		return "videos"
	case ResourceConfig:
		return "config"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// FetchesOnEnter lists what entering tab refreshes. The upload tab fetches
// nothing.
func FetchesOnEnter(t Tab) []Resource {
	switch t {
	case TabScripts:
		return []Resource{ResourceScripts}
	case TabJobs:
		return []Resource{ResourceJobs}
	case TabVideos:
		return []Resource{ResourceVideos}
	case TabConfig:
		return []Resource{ResourceConfig}
	default:
		return nil
	}
}
