package manifest

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/temirov/sc/internal/filesystem"
)

const (
	repoMetadataDirectoryNameConstant      = ".repo"
	manifestFileNameConstant               = "manifest.xml"
	manifestsDirectoryNameConstant         = "manifests"
	manifestElementNameConstant            = "manifest"
	projectElementNameConstant             = "project"
	defaultElementNameConstant             = "default"
	includeElementNameConstant             = "include"
	postSyncElementNameConstant            = "post-sync"
	nameAttributeConstant                  = "name"
	pathAttributeConstant                  = "path"
	remoteAttributeConstant                = "remote"
	revisionAttributeConstant              = "revision"
	lockStatusAttributeConstant            = "lock-status"
	alternativeMasterAttributeConstant     = "alternative-master"
	alternativeDevelopAttributeConstant    = "alternative-develop"
	manifestFilePermissionsConstant        = 0o644
	fileSystemNotConfiguredMessageConstant = "manifest file system not configured"
	unexpectedRootMessageConstant          = "manifest root element must be <manifest>"
	includeCycleMessageConstant            = "manifest include cycle"
	projectNameMissingMessageConstant      = "manifest project without a name"
	readFailureTemplateConstant            = "failed to read manifest %s: %w"
	parseFailureTemplateConstant           = "failed to parse manifest %s: %w"
	resolveFailureTemplateConstant         = "failed to resolve manifest %s: %w"
	writeFailureTemplateConstant           = "failed to write manifest %s: %w"
	documentErrorTemplateConstant          = "%w: %s"
)

// ErrFileSystemNotConfigured indicates the store was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// ErrUnexpectedRoot indicates a manifest file whose root element is not <manifest>.
var ErrUnexpectedRoot = errors.New(unexpectedRootMessageConstant)

// ErrIncludeCycle indicates a manifest that includes itself directly or transitively.
var ErrIncludeCycle = errors.New(includeCycleMessageConstant)

// ErrProjectNameMissing indicates a <project> element without a name attribute.
var ErrProjectNameMissing = errors.New(projectNameMissingMessageConstant)

// FileStore loads and saves repo XML manifests.
type FileStore struct {
	fileSystem filesystem.FileSystem
}

// NewFileStore constructs a FileStore.
func NewFileStore(fileSystem filesystem.FileSystem) (*FileStore, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &FileStore{fileSystem: fileSystem}, nil
}

// ManifestsDirectory returns the manifest repository checkout of a topology.
func ManifestsDirectory(topologyRoot string) string {
	return filepath.Join(topologyRoot, repoMetadataDirectoryNameConstant, manifestsDirectoryNameConstant)
}

// Load reads <root>/.repo/manifest.xml, following a symlink or include chain into the manifests checkout.
func (store *FileStore) Load(topologyRoot string) (*Manifest, error) {
	entryPath := filepath.Join(topologyRoot, repoMetadataDirectoryNameConstant, manifestFileNameConstant)
	resolvedPath, resolveError := store.fileSystem.EvalSymlinks(entryPath)
	if resolveError != nil {
		return nil, fmt.Errorf(resolveFailureTemplateConstant, entryPath, resolveError)
	}

	loader := manifestLoader{
		store:              store,
		manifestsDirectory: ManifestsDirectory(topologyRoot),
		visited:            map[string]struct{}{},
		manifest:           &Manifest{sourcePath: resolvedPath},
	}
	if loadError := loader.load(resolvedPath); loadError != nil {
		return nil, loadError
	}
	loader.applyDefaults()
	return loader.manifest, nil
}

// Save writes project revisions back to the files that declare them.
func (store *FileStore) Save(manifest *Manifest) error {
	for _, project := range manifest.Projects {
		if project.element == nil || project.document == nil {
			continue
		}
		declaredRevision := project.element.attribute(revisionAttributeConstant)
		if len(declaredRevision) == 0 && project.Revision == manifest.DefaultRevision {
			continue
		}
		project.document.setAttribute(project.element, revisionAttributeConstant, project.Revision)
	}

	for _, document := range manifest.documents {
		if !document.dirty {
			continue
		}
		if writeError := store.fileSystem.WriteFile(document.path, document.contents, manifestFilePermissionsConstant); writeError != nil {
			return fmt.Errorf(writeFailureTemplateConstant, document.path, writeError)
		}
		document.dirty = false
	}
	return nil
}

type manifestLoader struct {
	store              *FileStore
	manifestsDirectory string
	visited            map[string]struct{}
	manifest           *Manifest
}

func (loader *manifestLoader) load(path string) error {
	if _, seen := loader.visited[path]; seen {
		return fmt.Errorf(documentErrorTemplateConstant, ErrIncludeCycle, path)
	}
	loader.visited[path] = struct{}{}

	contents, readError := loader.store.fileSystem.ReadFile(path)
	if readError != nil {
		return fmt.Errorf(readFailureTemplateConstant, path, readError)
	}
	parsed, parseError := parseDocument(path, contents)
	if parseError != nil {
		return fmt.Errorf(parseFailureTemplateConstant, path, parseError)
	}
	if parsed.root.name != manifestElementNameConstant {
		return fmt.Errorf(documentErrorTemplateConstant, ErrUnexpectedRoot, path)
	}
	loader.manifest.documents = append(loader.manifest.documents, parsed)

	for _, child := range parsed.root.children {
		switch child.name {
		case defaultElementNameConstant:
			if remote := child.attribute(remoteAttributeConstant); len(remote) > 0 {
				loader.manifest.DefaultRemote = remote
			}
			if revision := child.attribute(revisionAttributeConstant); len(revision) > 0 {
				loader.manifest.DefaultRevision = revision
			}
		case projectElementNameConstant:
			project, projectError := newProject(child, parsed)
			if projectError != nil {
				return fmt.Errorf(documentErrorTemplateConstant, projectError, path)
			}
			loader.manifest.Projects = append(loader.manifest.Projects, project)
		case postSyncElementNameConstant:
			loader.manifest.PostSyncScripts = append(loader.manifest.PostSyncScripts, PostSyncScript{Path: child.attribute(pathAttributeConstant)})
		case includeElementNameConstant:
			includedPath := filepath.Join(loader.manifestsDirectory, child.attribute(nameAttributeConstant))
			resolvedPath, resolveError := loader.store.fileSystem.EvalSymlinks(includedPath)
			if resolveError != nil {
				return fmt.Errorf(resolveFailureTemplateConstant, includedPath, resolveError)
			}
			if includeError := loader.load(resolvedPath); includeError != nil {
				return includeError
			}
		}
	}
	return nil
}

func (loader *manifestLoader) applyDefaults() {
	for _, project := range loader.manifest.Projects {
		if len(project.Remote) == 0 {
			project.Remote = loader.manifest.DefaultRemote
		}
		if len(project.Revision) == 0 {
			project.Revision = loader.manifest.DefaultRevision
		}
	}
}

func newProject(projectElement *element, owner *document) (*Project, error) {
	name := projectElement.attribute(nameAttributeConstant)
	if len(name) == 0 {
		return nil, ErrProjectNameMissing
	}
	path := projectElement.attribute(pathAttributeConstant)
	if len(path) == 0 {
		path = name
	}
	return &Project{
		Name:               name,
		Path:               path,
		Remote:             projectElement.attribute(remoteAttributeConstant),
		Revision:           projectElement.attribute(revisionAttributeConstant),
		LockStatus:         LockStatus(projectElement.attribute(lockStatusAttributeConstant)),
		AlternativeMaster:  projectElement.attribute(alternativeMasterAttributeConstant),
		AlternativeDevelop: projectElement.attribute(alternativeDevelopAttributeConstant),
		element:            projectElement,
		document:           owner,
	}, nil
}
