// # internal/engine/names/legal.go
package names

import (
	"strconv"
	"strings"
	"unicode"

	"classforge/internal/engine/workspace"
)

// NameKind selects which definition namespace a name lives in.
type NameKind int

const (
	KindClass NameKind = iota
	KindMethod
)

func (k NameKind) String() string {
	if k == KindMethod {
		return "method"
	}
	return "class"
}

// FindLegalName turns a proposed name into one no other definition of the
// same kind holds. The proposal is trimmed of surrounding whitespace,
// non-breaking spaces included, since those arrive from pasted text.
// While the name is taken, a trailing decimal suffix is incremented, or
// "2" is appended when there is none. Blocks sitting in a flyout are
// palette templates and keep the trimmed proposal verbatim.
func FindLegalName(proposed string, scope workspace.Block, kind NameKind) string {
	name := strings.TrimFunc(proposed, unicode.IsSpace)
	if scope.InFlyout() {
		return name
	}
	for IsNameUsed(name, scope, kind) {
		name = bumpSuffix(name)
	}
	return name
}

// LegalNameIn resolves a proposal against the whole workspace without
// excluding any block, for callers that hold no renaming site, such as a
// session client probing a name before creating anything.
func LegalNameIn(ws *workspace.Workspace, proposed string, kind NameKind) string {
	name := strings.TrimFunc(proposed, unicode.IsSpace)
	if ws.IsFlyout() {
		return name
	}
	for nameUsed(ws, name, "", kind) {
		name = bumpSuffix(name)
	}
	return name
}

// IsNameUsed reports whether any definition of the given kind other than
// the excluded block already holds the name. The exclusion is what lets a
// block keep its own name on a no-op rename.
func IsNameUsed(name string, exclude workspace.Block, kind NameKind) bool {
	return nameUsed(exclude.Workspace(), name, exclude.ID(), kind)
}

func nameUsed(ws *workspace.Workspace, name, excludeID string, kind NameKind) bool {
	for _, b := range ws.AllBlocks(false) {
		if excludeID != "" && b.ID() == excludeID {
			continue
		}
		switch kind {
		case KindClass:
			if cd, ok := b.(workspace.ClassDefiner); ok && ws.NameEquals(cd.ClassName(), name) {
				return true
			}
		case KindMethod:
			if md, ok := b.(workspace.MethodDefiner); ok && ws.NameEquals(md.MethodName(), name) {
				return true
			}
		}
	}
	return false
}

// bumpSuffix increments a trailing decimal run, or appends "2". Leading
// zeros do not survive: "Car007" becomes "Car8".
func bumpSuffix(name string) string {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return name + "2"
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		// Digit run too long for an int; treat it as part of the stem.
		return name + "2"
	}
	return name[:i] + strconv.Itoa(n+1)
}
