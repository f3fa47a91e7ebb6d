package branching

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/temirov/sc/internal/filesystem"
	"github.com/temirov/sc/internal/manifest"
)

// ProjectType selects the execution strategy of every operation.
type ProjectType string

// Supported project types.
const (
	ProjectTypeGit  ProjectType = "git"
	ProjectTypeRepo ProjectType = "repo"
)

const (
	gitMetadataDirectoryNameConstant         = ".git"
	detectorFileSystemMissingMessageConstant = "topology detector requires a file system"
	runDirectoryResolveTemplateConstant      = "failed to resolve run directory %s: %w"
	metadataInspectTemplateConstant          = "failed to inspect %s: %w"
)

// ErrDetectorFileSystemMissing indicates a detector constructed without a file system.
var ErrDetectorFileSystemMissing = errors.New(detectorFileSystemMissingMessageConstant)

// Topology is the detected project root and the strategy it selects.
type Topology struct {
	Root string
	Type ProjectType
}

// ManifestDirectory returns the manifest repository checkout of the topology.
func (topology Topology) ManifestDirectory() string {
	return manifest.ManifestsDirectory(topology.Root)
}

// BranchDirectory returns the repository whose current branch identifies the topology branch.
func (topology Topology) BranchDirectory() string {
	if topology.Type == ProjectTypeRepo {
		return topology.ManifestDirectory()
	}
	return topology.Root
}

// Detector locates the topology enclosing a directory.
type Detector struct {
	fileSystem filesystem.FileSystem
}

// NewDetector constructs a Detector.
func NewDetector(fileSystem filesystem.FileSystem) (*Detector, error) {
	if fileSystem == nil {
		return nil, ErrDetectorFileSystemMissing
	}
	return &Detector{fileSystem: fileSystem}, nil
}

// Detect walks upward from the start directory. A manifest topology anywhere above
// the directory takes precedence over a nearer plain repository.
func (detector *Detector) Detect(startDirectory string) (Topology, error) {
	absoluteDirectory, absoluteError := detector.fileSystem.Abs(startDirectory)
	if absoluteError != nil {
		return Topology{}, fmt.Errorf(runDirectoryResolveTemplateConstant, startDirectory, absoluteError)
	}

	repoRoot, repoFound, repoError := detector.findAncestor(absoluteDirectory, manifest.ManifestsDirectory, true)
	if repoError != nil {
		return Topology{}, repoError
	}
	if repoFound {
		return Topology{Root: repoRoot, Type: ProjectTypeRepo}, nil
	}

	gitRoot, gitFound, gitError := detector.findAncestor(absoluteDirectory, func(directory string) string {
		return filepath.Join(directory, gitMetadataDirectoryNameConstant)
	}, false)
	if gitError != nil {
		return Topology{}, gitError
	}
	if gitFound {
		return Topology{Root: gitRoot, Type: ProjectTypeGit}, nil
	}

	return Topology{}, TopologyNotFoundError{Directory: absoluteDirectory}
}

func (detector *Detector) findAncestor(startDirectory string, marker func(string) string, requireDirectory bool) (string, bool, error) {
	for directory := startDirectory; ; directory = filepath.Dir(directory) {
		markerPath := marker(directory)
		information, statError := detector.fileSystem.Stat(markerPath)
		switch {
		case statError == nil:
			if !requireDirectory || information.IsDir() {
				return directory, true, nil
			}
		case !errors.Is(statError, fs.ErrNotExist):
			return "", false, fmt.Errorf(metadataInspectTemplateConstant, markerPath, statError)
		}
		if filepath.Dir(directory) == directory {
			return "", false, nil
		}
	}
}
