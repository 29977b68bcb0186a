package hhconfig

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Dialect is the source language of a configuration file.
type Dialect string

const (
	DialectJS Dialect = "js"
	DialectTS Dialect = "ts"
)

// DialectOf returns the dialect implied by a file name.
func DialectOf(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".cts", ".mts":
		return DialectTS
	default:
		return DialectJS
	}
}

// ExportStyle is the way a configuration file exports its object literal.
type ExportStyle int

const (
	ExportNone     ExportStyle = iota
	ExportAssign               // module.exports = { ... }
	ExportDefault              // export default { ... }
	ExportVariable             // const config = { ... }; exported by name
)

func (s ExportStyle) String() string {
	switch s {
	case ExportAssign:
		return "module.exports"
	case ExportDefault:
		return "export default"
	case ExportVariable:
		return "variable"
	default:
		return "none"
	}
}

// SourceForm records where and how the exported configuration literal sits
// in the file text, so it can be replaced in place.
type SourceForm struct {
	Dialect  Dialect
	Style    ExportStyle
	VarName  string
	TypeName string
	// Start and End are the offsets of the literal's opening and closing brace.
	Start, End int
}

// Located reports whether the literal span is known.
func (f SourceForm) Located() bool { return f.Style != ExportNone }

var (
	reAssignLiteral  = regexp.MustCompile(`module\.exports\s*=\s*\{`)
	reDefaultLiteral = regexp.MustCompile(`export\s+default\s+\{`)
	reAssignName     = regexp.MustCompile(`module\.exports\s*=\s*([A-Za-z_$][\w$]*)\s*;?`)
	reDefaultName    = regexp.MustCompile(`export\s+default\s+([A-Za-z_$][\w$]*)`)
)

// source is a configuration file text analysed once and shared by all
// extraction strategies.
type source struct {
	text    string
	masked  string
	dialect Dialect
	form    SourceForm
}

func newSource(text string, dialect Dialect) *source {
	s := &source{text: text, masked: mask(text), dialect: dialect}
	s.form = locateLiteral(text, s.masked, dialect)
	return s
}

// literal returns the exported object literal text, if located.
func (s *source) literal() (string, bool) {
	if !s.form.Located() {
		return "", false
	}
	return s.text[s.form.Start : s.form.End+1], true
}

// LocateLiteral finds the exported configuration object literal in text.
func LocateLiteral(text string, dialect Dialect) SourceForm {
	return locateLiteral(text, mask(text), dialect)
}

func locateLiteral(text, masked string, dialect Dialect) SourceForm {
	form := SourceForm{Dialect: dialect}

	try := func(re *regexp.Regexp, style ExportStyle) bool {
		loc := re.FindStringIndex(masked)
		if loc == nil {
			return false
		}
		open := loc[1] - 1
		end, ok := matchBracket(text, open)
		if !ok {
			return false
		}
		form.Style, form.Start, form.End = style, open, end
		return true
	}
	if try(reAssignLiteral, ExportAssign) || try(reDefaultLiteral, ExportDefault) {
		return form
	}

	var name string
	if m := reDefaultName.FindStringSubmatch(masked); m != nil {
		name = m[1]
	} else if m := reAssignName.FindStringSubmatch(masked); m != nil {
		name = m[1]
	}
	if name == "" {
		return form
	}
	reDecl := regexp.MustCompile(`(?:const|let|var)\s+` + regexp.QuoteMeta(name) + `\s*(?::\s*([^=]+?))?\s*=\s*\{`)
	loc := reDecl.FindStringSubmatchIndex(masked)
	if loc == nil {
		return form
	}
	open := loc[1] - 1
	end, ok := matchBracket(text, open)
	if !ok {
		return form
	}
	form.Style, form.VarName, form.Start, form.End = ExportVariable, name, open, end
	if loc[2] >= 0 {
		form.TypeName = strings.TrimSpace(text[loc[2]:loc[3]])
	}
	return form
}
