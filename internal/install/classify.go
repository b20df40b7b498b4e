package install

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/paths"
)

// Shape is the kind of path handed to Classify.
type Shape int

// Path shapes, tried in this order.
const (
	// ShapeDataDirectory is an account container itself.
	ShapeDataDirectory Shape = iota + 1
	// ShapeInsideData is a path below an account container
	// (an account folder or its SavedVariables).
	ShapeInsideData
	// ShapeVersionRoot is a version subtree such as _retail_.
	ShapeVersionRoot
	// ShapeInstallRoot is a top-level installation holding version subtrees.
	ShapeInstallRoot
)

func (s Shape) String() string {
	switch s {
	case ShapeDataDirectory:
		return "data directory"
	case ShapeInsideData:
		return "inside data directory"
	case ShapeVersionRoot:
		return "version root"
	case ShapeInstallRoot:
		return "installation root"
	default:
		return "unknown"
	}
}

// maxAncestorLevels bounds the upward search from inside an account tree.
const maxAncestorLevels = 3

// Classification is the normalized result of Classify.
type Classification struct {
	// Input is the string passed to Classify.
	Input string
	// Path is the normalized absolute form of Input.
	Path  string
	Shape Shape
	// DataPath is the account container (usually .../WTF/Account).
	DataPath string
	// RootPath is the version root holding WTF.
	RootPath string
	// Version is the version folder name when one is part of the path.
	Version string
	Kind    Kind
}

type classifyOptions struct {
	version string
}

// ClassifyOption configures Classify.
type ClassifyOption func(*classifyOptions)

// WithVersion picks a version subtree (e.g. "_classic_") when the path is
// an installation root with several of them.
func WithVersion(name string) ClassifyOption {
	return func(o *classifyOptions) {
		o.version = name
	}
}

// Classify resolves a user-supplied path to the account container of an
// installation. Detection is structural only: a data directory is any
// directory with a child folder that holds SavedVariables, so partial
// copies and network shares without the client executable are accepted.
//
// Errors: ErrPathNotFound when the path does not exist,
// ErrAmbiguousInstallation (as *AmbiguousError) when an installation root
// holds several version subtrees and WithVersion was not given, and
// ErrInvalidStructure when no known shape matches.
func Classify(input string, opts ...ClassifyOption) (*Classification, error) {
	var o classifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	p, err := normalize(input)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Path: p, Err: ErrPathNotFound}
		}
		return nil, errors.Wrapf(err, "stat %s", p)
	}
	if !info.IsDir() {
		return nil, &PathError{Path: p, Detail: "not a directory", Err: ErrInvalidStructure}
	}

	for _, match := range []func(string, classifyOptions) (*Classification, error){
		matchLayoutAnchor,
		matchDataDirectory,
		matchAncestorData,
		matchVersionSegment,
		matchBareVersionRoot,
		matchInstallRoot,
	} {
		c, err := match(p, o)
		if err != nil {
			return nil, err
		}
		if c != nil {
			c.Input = input
			c.Path = p
			return c, nil
		}
	}

	return nil, &PathError{Path: p, Err: ErrInvalidStructure}
}

// normalize strips whitespace and surrounding quotes, expands ~ and
// returns a clean absolute path.
func normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if s == "" {
		return "", &PathError{Path: input, Detail: "empty path", Err: ErrPathNotFound}
	}

	abs, err := filepath.Abs(paths.ExpandHome(s))
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", s)
	}
	return filepath.Clean(abs), nil
}

// matchLayoutAnchor handles paths that spell out .../WTF/Account[/...].
func matchLayoutAnchor(p string, _ classifyOptions) (*Classification, error) {
	segments := splitPath(p)
	for idx := len(segments) - 1; idx >= 1; idx-- {
		if !strings.EqualFold(segments[idx], AccountDir) || !strings.EqualFold(segments[idx-1], WTFDir) {
			continue
		}
		data := p
		for range len(segments) - 1 - idx {
			data = filepath.Dir(data)
		}
		if !hasSignature(data) {
			return nil, nil
		}
		shape := ShapeInsideData
		if data == p {
			shape = ShapeDataDirectory
		}
		return newClassification(shape, data), nil
	}
	return nil, nil
}

func matchDataDirectory(p string, _ classifyOptions) (*Classification, error) {
	if !hasSignature(p) {
		return nil, nil
	}
	return newClassification(ShapeDataDirectory, p), nil
}

// matchAncestorData covers account folders copied out of their WTF tree.
func matchAncestorData(p string, _ classifyOptions) (*Classification, error) {
	dir := p
	for range maxAncestorLevels {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		if hasSignature(dir) {
			return newClassification(ShapeInsideData, dir), nil
		}
	}
	return nil, nil
}

// matchVersionSegment handles any path containing a version folder name.
func matchVersionSegment(p string, _ classifyOptions) (*Classification, error) {
	segments := splitPath(p)
	for idx := len(segments) - 1; idx >= 0; idx-- {
		if !IsVersionMarker(segments[idx]) {
			continue
		}
		root := p
		for range len(segments) - 1 - idx {
			root = filepath.Dir(root)
		}
		data, ok := accountContainer(root)
		if !ok {
			return nil, &PathError{
				Path:   root,
				Detail: "version folder has no " + filepath.Join(WTFDir, AccountDir) + " with saved data",
				Err:    ErrInvalidStructure,
			}
		}
		return newClassification(ShapeVersionRoot, data), nil
	}
	return nil, nil
}

// matchBareVersionRoot handles a folder holding WTF/Account directly,
// e.g. a flattened copy without the version folder.
func matchBareVersionRoot(p string, _ classifyOptions) (*Classification, error) {
	data, ok := accountContainer(p)
	if !ok {
		return nil, nil
	}
	return newClassification(ShapeVersionRoot, data), nil
}

func matchInstallRoot(p string, o classifyOptions) (*Classification, error) {
	choices := versionSubtrees(p)

	if o.version != "" {
		for _, name := range choices {
			if strings.EqualFold(name, o.version) {
				data, _ := accountContainer(filepath.Join(p, name))
				return newClassification(ShapeInstallRoot, data), nil
			}
		}
		if len(choices) == 0 {
			return nil, nil
		}
		return nil, &PathError{
			Path:   p,
			Detail: "no version folder " + o.version + "; found " + strings.Join(choices, ", "),
			Err:    ErrInvalidStructure,
		}
	}

	switch len(choices) {
	case 0:
		return nil, nil
	case 1:
		data, _ := accountContainer(filepath.Join(p, choices[0]))
		return newClassification(ShapeInstallRoot, data), nil
	default:
		return nil, &AmbiguousError{Path: p, Choices: choices}
	}
}

// versionSubtrees lists version folders under dir that hold saved data.
func versionSubtrees(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !IsVersionMarker(e.Name()) {
			continue
		}
		if _, ok := accountContainer(filepath.Join(dir, e.Name())); ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// accountContainer returns root/WTF/Account if it carries the data signature.
func accountContainer(root string) (string, bool) {
	wtf, ok := findChild(root, WTFDir)
	if !ok {
		return "", false
	}
	acct, ok := findChild(wtf, AccountDir)
	if !ok || !hasSignature(acct) {
		return "", false
	}
	return acct, true
}

// hasSignature reports whether dir has a non-hidden child directory that
// holds a SavedVariables directory.
func hasSignature(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		child := filepath.Join(dir, e.Name())
		if !e.IsDir() && !(e.Type()&os.ModeSymlink != 0 && isDir(child)) {
			continue
		}
		if _, ok := findChild(child, SavedVariablesDir); ok {
			return true
		}
	}
	return false
}

func newClassification(shape Shape, data string) *Classification {
	root := data
	wtf := filepath.Dir(data)
	if strings.EqualFold(filepath.Base(data), AccountDir) && strings.EqualFold(filepath.Base(wtf), WTFDir) {
		root = filepath.Dir(wtf)
	}

	var version string
	if IsVersionMarker(filepath.Base(root)) {
		version = filepath.Base(root)
	}

	return &Classification{
		Shape:    shape,
		DataPath: data,
		RootPath: root,
		Version:  version,
		Kind:     DetectKind(root),
	}
}
