/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package locale maps translation file names to Phrase locale codes.
package locale

import "strings"

type alias struct {
	code  string
	names []string
}

// Order matters: "pt" resolves to the first matching entry (pt-PT).
var aliases = []alias{
	{"zh-CN", []string{"zh", "zh-cn", "zh_cn", "zhcn"}},
	{"en-US", []string{"en", "en-us", "en_us", "enus"}},
	{"zh-TW", []string{"zh-tw", "zh_tw", "zhtw"}},
	{"vi", []string{"vi", "vi-vn", "vi_vn", "vivn"}},
	{"ar", []string{"ar", "ar-sa", "ar_sa", "arsa", "ar_ar", "ar-ar", "arar"}},
	{"de", []string{"de", "de-de", "de_de", "dede"}},
	{"es-419", []string{"es", "es-419", "es_419", "es419"}},
	{"es-AR", []string{"es-ar", "es_ar", "esar"}},
	{"es-ES", []string{"es-es", "es_es", "eses"}},
	{"fa-IR", []string{"fa", "fa-ir", "fa_ir", "fari"}},
	{"fr", []string{"fr", "fr-fr", "fr_fr", "frfr"}},
	{"it", []string{"it", "it-it", "it_it", "itit"}},
	{"ja", []string{"ja", "ja-jp", "ja_jp", "jajp"}},
	{"ko", []string{"ko", "ko-kr", "ko_kr", "koko"}},
	{"pl", []string{"pl", "pl-pl", "pl_pl", "plpl"}},
	{"pt-PT", []string{"pt", "pt-pt", "pt_pt", "ptpt"}},
	{"pt-BR", []string{"pt", "pt-br", "pt_br", "ptbr"}},
	{"ru", []string{"ru", "ru-ru", "ru_ru", "ruru"}},
	{"tr", []string{"tr", "tr-tr", "tr_tr", "trtr"}},
	{"uk", []string{"uk", "uk-ua", "uk_ua", "ukua", "uk-uk", "uk_uk", "ukuk"}},
	{"en-TR", []string{"en_tr", "en-tr", "entr"}},
}

var byName = func() map[string]string {
	m := make(map[string]string)
	for _, a := range aliases {
		for _, name := range a.names {
			if _, taken := m[name]; !taken {
				m[name] = a.code
			}
		}
	}
	return m
}()

// Normalize returns the locale code for a file base name such as "zh_cn" or "PT-BR".
func Normalize(name string) (code string, ok bool) {
	code, ok = byName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Codes returns all supported locale codes.
func Codes() []string {
	codes := make([]string, len(aliases))
	for i := range aliases {
		codes[i] = aliases[i].code
	}
	return codes
}
