/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package locale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		wantCode string
		wantOK   bool
	}{
		{"zh", "zh-CN", true},
		{"ZH_CN", "zh-CN", true},
		{"en", "en-US", true},
		{"zh-tw", "zh-TW", true},
		{"es", "es-419", true},
		{"esAR", "es-AR", true},
		{"pt", "pt-PT", true},
		{"ptPT", "pt-PT", true},
		{"pt_br", "pt-BR", true},
		{"uk-uk", "uk", true},
		{"en-tr", "en-TR", true},
		{"klingon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := Normalize(tt.name)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantCode, code)
		})
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	require.Len(t, codes, 21)
	for _, code := range codes {
		got, ok := Normalize(code)
		require.True(t, ok, code)
		require.Equal(t, code, got)
	}
}
