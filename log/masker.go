/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Mask is used to mask a secret in strings.
type Mask struct {
	RegExp *regexp.Regexp
	Mask   string
}

// NewMask compiles the mask configuration. It panics if the regular expression is invalid.
func NewMask(cfg MaskConfig) Mask {
	return Mask{regexp.MustCompile(cfg.RegExp), cfg.Mask}
}

// FieldMasker is used to mask a field in different formats.
type FieldMasker struct {
	Field string // lowercase
	Masks []Mask
}

// NewFieldMasker builds masks for the field in all requested formats plus the custom ones.
func NewFieldMasker(cfg MaskingRuleConfig) FieldMasker {
	fm := FieldMasker{Field: strings.ToLower(cfg.Field), Masks: make([]Mask, 0, len(cfg.Masks)+len(cfg.Formats))}
	for _, maskCfg := range cfg.Masks {
		fm.Masks = append(fm.Masks, NewMask(maskCfg))
	}
	quoted := regexp.QuoteMeta(cfg.Field)
	for _, format := range cfg.Formats {
		switch format {
		case FieldMaskFormatHTTPHeader:
			fm.Masks = append(fm.Masks, NewMask(MaskConfig{`(?i)` + quoted + `: .+?\r\n`, cfg.Field + ": ***\r\n"}))
		case FieldMaskFormatJSON:
			fm.Masks = append(fm.Masks, NewMask(MaskConfig{`(?i)"` + quoted + `"\s*:\s*".*?[^\\]"`, `"` + cfg.Field + `": "***"`}))
		case FieldMaskFormatURLEncoded:
			fm.Masks = append(fm.Masks, NewMask(MaskConfig{`(?i)\b` + quoted + `\s*=\s*[^&\s]+`, cfg.Field + "=***"}))
		}
	}
	return fm
}

// Masker is used to mask various secrets in strings.
// Field names are looked up with a single Aho-Corasick pass over the string,
// so regular expressions run only for the fields that are actually present.
type Masker struct {
	FieldMasks []FieldMasker
	matcher    *ahocorasick.Matcher
}

// NewMasker creates a Masker for the given rules.
func NewMasker(rules []MaskingRuleConfig) *Masker {
	m := &Masker{FieldMasks: make([]FieldMasker, 0, len(rules))}
	fields := make([]string, 0, len(rules))
	for _, rule := range rules {
		fm := NewFieldMasker(rule)
		m.FieldMasks = append(m.FieldMasks, fm)
		fields = append(fields, fm.Field)
	}
	m.matcher = ahocorasick.NewStringMatcher(fields)
	return m
}

// Mask replaces secrets in s.
func (m *Masker) Mask(s string) string {
	if len(m.FieldMasks) == 0 {
		return s
	}
	hits := m.matcher.MatchThreadSafe([]byte(strings.ToLower(s)))
	if len(hits) == 0 {
		return s
	}
	applied := make([]bool, len(m.FieldMasks))
	for _, idx := range hits {
		if applied[idx] {
			continue
		}
		applied[idx] = true
		for _, mask := range m.FieldMasks[idx].Masks {
			s = mask.RegExp.ReplaceAllString(s, mask.Mask)
		}
	}
	return s
}

// DefaultMasks hides Phrase API tokens and common OAuth-style secrets.
var DefaultMasks = []MaskingRuleConfig{
	{
		Field:   "Authorization",
		Formats: []FieldMaskFormat{FieldMaskFormatHTTPHeader},
		Masks: []MaskConfig{
			// "Authorization: token <value>" and the Go http.Header dump "Authorization:[token <value>]".
			{RegExp: `(?i)(authorization\W+(?:token|bearer)\s+)[^\s\]"]+`, Mask: "${1}***"},
		},
	},
	{
		Field:   "access_token",
		Formats: []FieldMaskFormat{FieldMaskFormatJSON, FieldMaskFormatURLEncoded},
	},
	{
		Field:   "token",
		Formats: []FieldMaskFormat{FieldMaskFormatJSON},
	},
	{
		Field:   "password",
		Formats: []FieldMaskFormat{FieldMaskFormatJSON, FieldMaskFormatURLEncoded},
	},
	{
		Field:   "client_secret",
		Formats: []FieldMaskFormat{FieldMaskFormatJSON, FieldMaskFormatURLEncoded},
	},
}
