package branching

import (
	"errors"
	"fmt"
	"strings"
)

// BranchType is the logical category of a branch.
type BranchType string

// Supported branch types.
const (
	BranchTypeFeature BranchType = "feature"
	BranchTypeRelease BranchType = "release"
	BranchTypeSupport BranchType = "support"
	BranchTypeHotfix  BranchType = "hotfix"
	BranchTypeDevelop BranchType = "develop"
	BranchTypeMaster  BranchType = "master"
)

const (
	branchNameSeparatorConstant      = "/"
	branchNameTemplateConstant       = "%s/%s"
	suffixRequiredMessageConstant    = "branch suffix is required"
	unknownBranchTypeMessageConstant = "unknown branch type"
	branchTypeErrorTemplateConstant  = "%w: %q"
)

// ErrSuffixRequired indicates a parametric branch was constructed without a suffix.
var ErrSuffixRequired = errors.New(suffixRequiredMessageConstant)

// ErrUnknownBranchType indicates a value outside the supported branch types.
var ErrUnknownBranchType = errors.New(unknownBranchTypeMessageConstant)

var knownBranchTypes = []BranchType{
	BranchTypeFeature,
	BranchTypeRelease,
	BranchTypeSupport,
	BranchTypeHotfix,
	BranchTypeDevelop,
	BranchTypeMaster,
}

// ParseBranchType validates and converts a raw branch type.
func ParseBranchType(value string) (BranchType, error) {
	for _, branchType := range knownBranchTypes {
		if string(branchType) == value {
			return branchType, nil
		}
	}
	return "", fmt.Errorf(branchTypeErrorTemplateConstant, ErrUnknownBranchType, value)
}

// IsPrimary reports whether the type names a singleton long-lived branch.
func (branchType BranchType) IsPrimary() bool {
	return branchType == BranchTypeDevelop || branchType == BranchTypeMaster
}

// String returns the raw branch type.
func (branchType BranchType) String() string {
	return string(branchType)
}

// Branch identifies a branch by type and optional suffix.
type Branch struct {
	branchType BranchType
	suffix     string
}

// NewBranch constructs a Branch. Parametric types require a non-empty suffix.
func NewBranch(branchType BranchType, suffix string) (Branch, error) {
	if _, typeError := ParseBranchType(string(branchType)); typeError != nil {
		return Branch{}, typeError
	}
	trimmedSuffix := strings.TrimSpace(suffix)
	if len(trimmedSuffix) == 0 && !branchType.IsPrimary() {
		return Branch{}, fmt.Errorf(branchTypeErrorTemplateConstant, ErrSuffixRequired, branchType)
	}
	return Branch{branchType: branchType, suffix: trimmedSuffix}, nil
}

// ParseBranchName splits a branch name on its first separator into type and suffix.
func ParseBranchName(name string) (Branch, error) {
	rawType, suffix, _ := strings.Cut(name, branchNameSeparatorConstant)
	branchType, typeError := ParseBranchType(rawType)
	if typeError != nil {
		return Branch{}, typeError
	}
	return NewBranch(branchType, suffix)
}

// Type returns the branch type.
func (branch Branch) Type() BranchType {
	return branch.branchType
}

// Suffix returns the branch suffix, empty for primary branches.
func (branch Branch) Suffix() string {
	return branch.suffix
}

// Name returns the canonical git branch name.
func (branch Branch) Name() string {
	if len(branch.suffix) == 0 {
		return string(branch.branchType)
	}
	return fmt.Sprintf(branchNameTemplateConstant, branch.branchType, branch.suffix)
}

// String returns the canonical git branch name.
func (branch Branch) String() string {
	return branch.Name()
}
