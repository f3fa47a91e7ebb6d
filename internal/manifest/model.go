package manifest

import "path/filepath"

// LockStatus restricts which orchestration steps may touch a project.
type LockStatus string

// Supported lock statuses.
const (
	LockStatusNone     LockStatus = ""
	LockStatusReadOnly LockStatus = "READ_ONLY"
	LockStatusTagOnly  LockStatus = "TAG_ONLY"
)

// Project is a single repository referenced by the manifest.
type Project struct {
	Name               string
	Path               string
	Remote             string
	Revision           string
	LockStatus         LockStatus
	AlternativeMaster  string
	AlternativeDevelop string

	element  *element
	document *document
}

// Locked reports whether the project carries any lock status.
func (project *Project) Locked() bool {
	return project.LockStatus != LockStatusNone
}

// Directory returns the project checkout location under the topology root.
func (project *Project) Directory(topologyRoot string) string {
	return filepath.Join(topologyRoot, project.Path)
}

// PostSyncScript is a hook the clone flow runs after the first sync.
type PostSyncScript struct {
	Path string
}

// Manifest is the parsed project registry for a topology.
type Manifest struct {
	Projects        []*Project
	PostSyncScripts []PostSyncScript
	DefaultRemote   string
	DefaultRevision string

	sourcePath string
	documents  []*document
}

// SourcePath returns the file the manifest was loaded from after symlink resolution.
func (manifest *Manifest) SourcePath() string {
	return manifest.sourcePath
}

// UnlockedProjects returns the projects without a lock status in manifest order.
func (manifest *Manifest) UnlockedProjects() []*Project {
	unlocked := make([]*Project, 0, len(manifest.Projects))
	for _, project := range manifest.Projects {
		if !project.Locked() {
			unlocked = append(unlocked, project)
		}
	}
	return unlocked
}
