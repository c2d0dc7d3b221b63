package config

import (
	"path/filepath"
	"strings"
)

const Version = "0.1.0"

const SourceFileExt = ".plet"

// SourceFileExtensions are all recognized template extensions. ".tss" is the
// extension used by older projects.
var SourceFileExtensions = []string{".plet", ".tss"}

// DataFileExtensions map to the decoder used for data modules.
var DataFileExtensions = map[string]string{
	".json": "notation",
	".tson": "notation",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
}

// IndexFiles are looked up, in order, when searching for the project root.
var IndexFiles = []string{"index.plet", "index.tss"}

const (
	ProjectFile       = "plet.yaml"
	DefaultDistDir    = "dist"
	DefaultPort       = "6500"
	AssetDir          = "assets"
	ReloadEndpoint    = "/.plet-hot-reload-event-source"
	ReloadEvent       = "changes_detected"
	MaxLexerErrors    = 20
	MaxRecursionDepth = 500
)

// Bindings with special meaning to the build.
const (
	SiteMapName          = "SITE_MAP"
	ReversePathsName     = "REVERSE_PATHS"
	OutputObserversName  = "OUTPUT_OBSERVERS"
	ContentHandlersName  = "CONTENT_HANDLERS"
	SrcRootName          = "SRC_ROOT"
	DistRootName         = "DIST_ROOT"
	RootPathName         = "ROOT_PATH"
	RootURLName          = "ROOT_URL"
	FileName             = "FILE"
	DirName              = "DIR"
	PathName             = "PATH"
	PageName             = "PAGE"
	LayoutName           = "LAYOUT"
	ContentName          = "CONTENT"
	PreserveLosslessName = "IMAGE_PRESERVE_LOSSLESS"
)

// URI prefixes rewritten by the links/urls/images transforms.
const (
	AssetURIPrefix = "pletasset:"
	LinkURIPrefix  = "pletlink:"
)

// HasSourceExt reports whether path names a template.
func HasSourceExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DataDecoder returns the decoder name for a data file, or "".
func DataDecoder(path string) string {
	return DataFileExtensions[strings.ToLower(filepath.Ext(path))]
}
