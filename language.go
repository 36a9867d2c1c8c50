/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/Seednode/kingsgame/games/kings"
	"golang.org/x/text/language"
)

// Same order as kings.Languages; the first entry is the default.
var displayMatcher = language.NewMatcher([]language.Tag{
	language.Korean,
	language.English,
	language.MustParse("tl"),
})

// preferredLanguage picks the display language for a new game from the
// request's Accept-Language header.
func preferredLanguage(r *http.Request) kings.Language {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return kings.Languages[0]
	}

	_, i, confidence := displayMatcher.Match(tags...)
	if confidence == language.No || i < 0 || i >= len(kings.Languages) {
		return kings.Languages[0]
	}

	return kings.Languages[i]
}
