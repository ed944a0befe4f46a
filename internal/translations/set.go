/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package translations

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Set is an ordered locale -> key -> value collection of translations.
// Both locales and keys keep their insertion order. The zero value is not usable, use NewSet.
type Set struct {
	locales []string
	entries map[string]*localeEntries
}

type localeEntries struct {
	keys   []string
	values map[string]string
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{entries: make(map[string]*localeEntries)}
}

// Add sets the value of the key in the locale. New locales and keys are appended.
func (s *Set) Add(locale, key, value string) {
	le, ok := s.entries[locale]
	if !ok {
		le = &localeEntries{values: make(map[string]string)}
		s.entries[locale] = le
		s.locales = append(s.locales, locale)
	}
	if _, exists := le.values[key]; !exists {
		le.keys = append(le.keys, key)
	}
	le.values[key] = value
}

// RemoveLocale drops the locale with all its keys.
func (s *Set) RemoveLocale(locale string) {
	if _, ok := s.entries[locale]; !ok {
		return
	}
	delete(s.entries, locale)
	for i := range s.locales {
		if s.locales[i] == locale {
			s.locales = append(s.locales[:i], s.locales[i+1:]...)
			break
		}
	}
}

// Locales returns locales in insertion order.
func (s *Set) Locales() []string {
	return append([]string(nil), s.locales...)
}

// HasLocale reports whether the locale is present.
func (s *Set) HasLocale(locale string) bool {
	_, ok := s.entries[locale]
	return ok
}

// Keys returns keys of the locale in insertion order.
func (s *Set) Keys(locale string) []string {
	if le, ok := s.entries[locale]; ok {
		return append([]string(nil), le.keys...)
	}
	return nil
}

// Value returns the value of the key in the locale.
func (s *Set) Value(locale, key string) (string, bool) {
	if le, ok := s.entries[locale]; ok {
		v, found := le.values[key]
		return v, found
	}
	return "", false
}

// Len returns the number of locales.
func (s *Set) Len() int {
	return len(s.locales)
}

// MarshalJSON encodes the set as a JSON object preserving the order. HTML characters are not escaped.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	writeString := func(str string) error {
		if err := enc.Encode(str); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends '\n'
		return nil
	}

	buf.WriteByte('{')
	for i, locale := range s.locales {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(locale); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		le := s.entries[locale]
		for j, key := range le.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(key); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeString(le.values[key]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of objects of strings keeping the document order.
func (s *Set) UnmarshalJSON(data []byte) error {
	res := NewSet()
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		locale, err := readString(dec)
		if err != nil {
			return err
		}
		if err = expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("locale %q: %w", locale, err)
		}
		for dec.More() {
			key, keyErr := readString(dec)
			if keyErr != nil {
				return fmt.Errorf("locale %q: %w", locale, keyErr)
			}
			value, valErr := readString(dec)
			if valErr != nil {
				return fmt.Errorf("locale %q, key %q: %w", locale, key, valErr)
			}
			res.Add(locale, key, value)
		}
		if err = expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*s = *res
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readString(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	str, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", tok)
	}
	return str, nil
}
