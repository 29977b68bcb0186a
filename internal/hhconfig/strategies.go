package hhconfig

import (
	"errors"
	"fmt"
	"regexp"
)

// Strategy is one attempt at recovering the configuration document. It
// returns the document, any non-fatal warnings, or an error when it cannot
// produce a document at all.
type Strategy interface {
	Name() string
	Attempt(src *source) (Document, []string, error)
}

// patternStrategy decodes the exported object literal as data, without
// evaluating anything.
type patternStrategy struct{}

func (patternStrategy) Name() string { return "pattern" }

func (patternStrategy) Attempt(src *source) (Document, []string, error) {
	lit, ok := src.literal()
	if !ok {
		return nil, nil, errors.New("no exported object literal found")
	}
	lit = stripComments(lit)
	if src.dialect == DialectTS {
		lit = replaceInCode(lit, reAsCast, "")
		lit = replaceInCode(lit, reSatisfies, "")
	}
	v, err := DecodeLiteral(lit)
	if err != nil {
		return nil, nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("exported literal is %T, not an object", v)
	}
	return Document(obj), nil, nil
}

// SectionKeys are the top-level keys the section strategy recovers.
var SectionKeys = []string{KeySolidity, KeyNetworks, KeyEtherscan}

// sectionStrategy recovers the well-known top-level sections one by one,
// skipping any that do not decode. Everything else in the file is lost.
type sectionStrategy struct{}

func (sectionStrategy) Name() string { return "sections" }

func (sectionStrategy) Attempt(src *source) (Document, []string, error) {
	starts := sectionStarts(src)
	doc := Document{}
	var warnings []string
	for _, key := range SectionKeys {
		start, ok := starts[key]
		if !ok {
			continue
		}
		end, ok := valueEnd(src.text, start)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("section %s: unterminated value", key))
			continue
		}
		text := stripComments(src.text[start:end])
		if src.dialect == DialectTS {
			text = replaceInCode(text, reAsCast, "")
		}
		v, err := DecodeLiteral(text)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("section %s: %v", key, err))
			continue
		}
		if v != nil {
			doc[key] = v
		}
	}
	if len(doc) == 0 {
		return nil, warnings, errors.New("no known section could be recovered")
	}
	return doc, warnings, nil
}

// sectionStarts maps each section key to the offset of its value. Inside a
// located literal only top-level keys count; otherwise the first textual
// occurrence is used.
func sectionStarts(src *source) map[string]int {
	starts := map[string]int{}
	if src.form.Located() {
		for _, k := range topLevelKeys(src.text, src.masked, src.form.Start, src.form.End) {
			if _, seen := starts[k.name]; !seen {
				starts[k.name] = k.value
			}
		}
		return starts
	}
	for _, key := range SectionKeys {
		re := regexp.MustCompile(`(?:\b` + key + `|["']` + key + `["'])\s*:\s*`)
		for _, loc := range re.FindAllStringIndex(src.text, -1) {
			// matches inside strings or comments are blanked in the mask
			if src.masked[loc[0]] != src.text[loc[0]] || src.masked[loc[1]-1] != src.text[loc[1]-1] {
				continue
			}
			starts[key] = loc[1]
			break
		}
	}
	return starts
}
