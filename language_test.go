/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http/httptest"
	"testing"

	"github.com/Seednode/kingsgame/games/kings"
)

func TestPreferredLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   kings.Language
	}{
		{header: "", want: kings.LanguageKorean},
		{header: "ko-KR,ko;q=0.9", want: kings.LanguageKorean},
		{header: "en-US,en;q=0.9", want: kings.LanguageEnglish},
		{header: "en-GB", want: kings.LanguageEnglish},
		{header: "tl", want: kings.LanguageTagalog},
		{header: "fr-FR,en;q=0.5", want: kings.LanguageEnglish},
		{header: "de-DE", want: kings.LanguageKorean},
		{header: ";;;", want: kings.LanguageKorean},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/kings/abc", nil)
		if tt.header != "" {
			r.Header.Set("Accept-Language", tt.header)
		}

		if got := preferredLanguage(r); got != tt.want {
			t.Errorf("preferredLanguage(%q) = %s, want %s", tt.header, got, tt.want)
		}
	}
}
