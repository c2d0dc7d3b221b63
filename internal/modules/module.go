package modules

import (
	"time"

	"github.com/nielssp/plet/internal/ast"
)

type Kind int

const (
	KindSystem Kind = iota
	KindUser
	KindData
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindUser:
		return "user"
	case KindData:
		return "data"
	case KindAsset:
		return "asset"
	}
	return "unknown"
}

// AssetInfo describes an image asset.
type AssetInfo struct {
	Width  int
	Height int
	Format string
}

// Module is one entry of the module cache.
type Module struct {
	Kind Kind
	// Path is the canonical source path, or the name of a system module.
	Path string
	// Root is the template block of a user module or the value of a data
	// module.
	Root ast.Node
	// Errors counts lexical and syntax errors found while parsing.
	Errors int
	// Image is set for assets that decode as images.
	Image   *AssetInfo
	ModTime time.Time
	Dirty   bool
}

// Block returns the root of a user module.
func (m *Module) Block() *ast.Block {
	block, _ := m.Root.(*ast.Block)
	return block
}
