package hhconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrLiteralNotFound is returned when an existing file has no exported object
// literal to replace.
var ErrLiteralNotFound = errors.New("exported configuration object not found")

// MarshalDocument renders doc as two-space indented JSON, the way the
// configuration is embedded back into source text.
func MarshalDocument(doc Document) (string, error) {
	if doc == nil {
		doc = Document{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Render produces the new file content for cfg. The document replaces the
// original literal in place so that everything around it survives; new files
// are synthesized in the dialect's default form. Missing plugin imports are
// added at the top.
func Render(cfg *Config, plugins ...string) ([]byte, error) {
	body, err := MarshalDocument(cfg.Doc)
	if err != nil {
		return nil, err
	}

	var out string
	switch {
	case cfg.Original != "" && cfg.Form.Located():
		out = cfg.Original[:cfg.Form.Start] + body + cfg.Original[cfg.Form.End+1:]
	case cfg.Original != "":
		return nil, ErrLiteralNotFound
	default:
		out = synthesize(cfg.Dialect, body)
	}
	return []byte(addPluginImports(out, cfg, plugins)), nil
}

func synthesize(dialect Dialect, body string) string {
	if dialect == DialectTS {
		return "import { HardhatUserConfig } from \"hardhat/config\";\n\n" +
			"const config: HardhatUserConfig = " + body + ";\n\n" +
			"export default config;\n"
	}
	return "module.exports = " + body + ";\n"
}

// addPluginImports prepends an import for each plugin the original file does
// not load yet. New files always get them.
func addPluginImports(text string, cfg *Config, plugins []string) string {
	var lines []string
	for _, p := range plugins {
		if p == "" || loadsPlugin(cfg, p) {
			continue
		}
		if cfg.Dialect == DialectTS {
			lines = append(lines, fmt.Sprintf("import %q;", p))
		} else {
			lines = append(lines, fmt.Sprintf("require(%q);", p))
		}
	}
	if len(lines) == 0 {
		return text
	}
	return strings.Join(lines, "\n") + "\n\n" + text
}

// loadsPlugin reports whether the code around the configuration literal
// names plugin as a module specifier. Comments and the literal itself do
// not count.
func loadsPlugin(cfg *Config, plugin string) bool {
	code := cfg.Original
	if code == "" {
		return false
	}
	if cfg.Form.Located() {
		code = code[:cfg.Form.Start] + code[cfg.Form.End+1:]
	}
	code = stripComments(code)
	for _, q := range []string{`"`, `'`, "`"} {
		if strings.Contains(code, q+plugin+q) || strings.Contains(code, q+plugin+"/") {
			return true
		}
	}
	return false
}
