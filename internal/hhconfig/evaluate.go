package hhconfig

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"github.com/Bidon15/hardhatkit"
)

var (
	reImportFrom   = regexp.MustCompile(`(?m)^[ \t]*import\s+[^;'"]*?\s+from\s+['"][^'"\n]*['"][ \t]*;?`)
	reImportBare   = regexp.MustCompile(`(?m)^[ \t]*import\s+['"][^'"\n]*['"][ \t]*;?`)
	reRequireLine  = regexp.MustCompile(`(?m)^[ \t]*(?:(?:const|let|var)\s+[^=\n]+=\s*)?require\(\s*['"][^'"\n]*['"]\s*\)[^\n]*$`)
	reExportDflt   = regexp.MustCompile(`(?m)^([ \t]*)export\s+default\s+`)
	reExportDecl   = regexp.MustCompile(`(?m)^([ \t]*)export\s+((?:const|let|var|function|async|class)\b)`)
	reVarTypeAnnot = regexp.MustCompile(`(?m)^([ \t]*(?:const|let|var)\s+[A-Za-z_$][\w$]*)\s*:\s*[^=\n]+?\s*=`)
	reAsCast       = regexp.MustCompile(`\s+as\s+(?:const\b|[A-Za-z_$][\w$.]*(?:<[^>\n]*>)?(?:\[\])?)`)
	reSatisfies    = regexp.MustCompile(`\s+satisfies\s+[A-Za-z_$][\w$.]*(?:<[^>\n]*>)?`)
)

// prelude stands in for the globals Hardhat injects into config files. Every
// stub is a chainable no-op so task definitions evaluate without effect.
const prelude = `
var __noop = new Proxy(function () {}, {
  get: function (target, prop) { return prop === Symbol.toPrimitive ? undefined : __noop; },
  apply: function () { return __noop; },
  construct: function () { return __noop; }
});
var task = __noop, subtask = __noop, scope = __noop, types = __noop;
var extendEnvironment = __noop, extendConfig = __noop, extendProvider = __noop;
var vars = {
  get: function (name, fallback) { return fallback === undefined ? "" : fallback; },
  has: function () { return false; }
};
var require = function () { return __noop; };
var exports = {};
var module = { exports: exports };
var __dirname = ".", __filename = "hardhat.config.js";
`

// evaluateStrategy runs the configuration file as a script in a sandboxed
// JavaScript runtime and captures module.exports. The runtime has no file,
// network or process access beyond a copy of the environment.
type evaluateStrategy struct {
	env     map[string]string
	timeout time.Duration
}

func (evaluateStrategy) Name() string { return "evaluate" }

func (s evaluateStrategy) Attempt(src *source) (Document, []string, error) {
	script := transformForEval(src.text, src.dialect)

	vm := goja.New()
	env := make(map[string]any, len(s.env))
	for k, v := range s.env {
		env[k] = v
	}
	if err := vm.Set("process", map[string]any{"env": env}); err != nil {
		return nil, nil, err
	}
	if _, err := vm.RunString(prelude); err != nil {
		return nil, nil, fmt.Errorf("prelude: %w", err)
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = hardhatkit.DefaultEvalTimeout
	}
	timer := time.AfterFunc(timeout, func() { vm.Interrupt("evaluation timed out") })
	defer timer.Stop()

	if _, err := vm.RunScript(hardhatkit.ConfigFileJS, script); err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, nil, fmt.Errorf("evaluation interrupted after %s", timeout)
		}
		return nil, nil, err
	}

	module := vm.Get("module")
	if module == nil || goja.IsUndefined(module) || goja.IsNull(module) {
		return nil, nil, errors.New("module is not defined")
	}
	exported := module.ToObject(vm).Get("exports")
	if exported == nil || goja.IsUndefined(exported) || goja.IsNull(exported) {
		return nil, nil, errors.New("module.exports is empty")
	}
	var dropped []string
	data, _ := exportValue(exported, "", 0, &dropped)
	doc, ok := data.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("module.exports is %T, not an object", exported.Export())
	}
	if len(doc) == 0 {
		return nil, nil, errors.New("module.exports is an empty object")
	}
	var warnings []string
	for _, p := range dropped {
		warnings = append(warnings, fmt.Sprintf("dropped non-data value at %s", p))
	}
	return Document(doc), warnings, nil
}

// transformForEval rewrites module syntax into a plain script: imports and
// require lines go away, default exports become module.exports assignments,
// and TypeScript annotations are stripped.
func transformForEval(text string, dialect Dialect) string {
	out := stripComments(text)
	out = reImportFrom.ReplaceAllString(out, "")
	out = reImportBare.ReplaceAllString(out, "")
	out = reRequireLine.ReplaceAllString(out, "")
	out = reExportDflt.ReplaceAllString(out, "${1}module.exports = ")
	out = reExportDecl.ReplaceAllString(out, "${1}${2}")
	if dialect == DialectTS {
		out = replaceInCode(out, reVarTypeAnnot, "${1} =")
		out = replaceInCode(out, reAsCast, "")
		out = replaceInCode(out, reSatisfies, "")
	}
	return out
}

// maxExportDepth bounds the walk over exported objects, which may be cyclic.
const maxExportDepth = 64

// exportValue converts a runtime value into JSON-compatible data with
// JSON.stringify semantics: undefined and function properties are omitted,
// and in arrays they become null. The second result reports whether an
// object property holding v should be kept.
func exportValue(v goja.Value, path string, depth int, dropped *[]string) (any, bool) {
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	if goja.IsNull(v) {
		return nil, true
	}
	if _, isFunc := goja.AssertFunction(v); isFunc {
		*dropped = append(*dropped, displayPath(path))
		return nil, false
	}
	obj, isObj := v.(*goja.Object)
	if !isObj {
		return normalize(v.Export(), path, dropped), true
	}
	if depth > maxExportDepth {
		*dropped = append(*dropped, displayPath(path))
		return nil, false
	}

	switch obj.ClassName() {
	case "Array":
		n := obj.Get("length").ToInteger()
		out := make([]any, 0, n)
		for i := int64(0); i < n; i++ {
			child := fmt.Sprintf("%s[%d]", displayPath(path), i)
			e, keep := exportValue(obj.Get(strconv.FormatInt(i, 10)), child, depth+1, dropped)
			if !keep {
				e = nil
			}
			out = append(out, e)
		}
		return out, true
	case "Object":
		keys := obj.Keys()
		sort.Strings(keys)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			if e, keep := exportValue(obj.Get(k), joinPath(path, k), depth+1, dropped); keep {
				out[k] = e
			}
		}
		return out, true
	default:
		exported := v.Export()
		if !representable(exported) {
			*dropped = append(*dropped, displayPath(path))
			return nil, false
		}
		return normalize(exported, path, dropped), true
	}
}

// normalize converts an exported runtime value into JSON-compatible data,
// recording the paths of values that cannot be represented.
func normalize(v any, path string, dropped *[]string) any {
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			*dropped = append(*dropped, displayPath(path))
			return nil
		}
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			child := joinPath(path, k)
			if !representable(x[k]) {
				*dropped = append(*dropped, child)
				continue
			}
			out[k] = normalize(x[k], child, dropped)
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for i, e := range x {
			child := fmt.Sprintf("%s[%d]", displayPath(path), i)
			if !representable(e) {
				*dropped = append(*dropped, child)
				out = append(out, nil)
				continue
			}
			out = append(out, normalize(e, child, dropped))
		}
		return out
	default:
		*dropped = append(*dropped, displayPath(path))
		return nil
	}
}

func representable(v any) bool {
	switch v.(type) {
	case nil, bool, string, int, int32, int64, float64, map[string]any, []any:
		return true
	}
	return false
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}
