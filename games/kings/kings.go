/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package kings implements the King's Game: a loser is picked among the
// players, either by spinning a wheel or by taking turns cutting fuses until
// one of them turns out to be the bomb, and a short punishment is then
// requested from a text generator in Korean, English and Tagalog.
//
// Rules:
// - At least two players are needed to start a round
// - Players may be paired as couples; a pairing is symmetric and exclusive
// - If the loser has a partner, the punishment involves only the two of them
// - Otherwise a random other player is picked as the target
// - The English version of every generated punishment is kept as history,
//   and the last ten are sent back to the generator to avoid repeats
// - If the generator fails for any reason, everyone drinks
//
// Everything in this package is single-threaded: a Session must only be
// touched from one goroutine. Timers and generator calls are driven by the
// caller, which hands their results back tagged with a Ticket.
package kings

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName         = errors.New("player name is empty")
	ErrUnknownPlayer     = errors.New("no such player")
	ErrSelfPairing       = errors.New("a player cannot be their own partner")
	ErrNotEnoughPlayers  = errors.New("at least two players are required")
	ErrWrongPhase        = errors.New("action not allowed in the current phase")
	ErrWrongMode         = errors.New("action not allowed in the current game mode")
	ErrInvalidSetting    = errors.New("invalid setting")
	ErrAlreadySpinning   = errors.New("wheel is already spinning")
	ErrNotSpinning       = errors.New("wheel is not spinning")
	ErrSlotOutOfRange    = errors.New("fuse does not exist")
	ErrSlotTaken         = errors.New("fuse has already been cut")
	ErrExploded          = errors.New("bomb has already exploded")
	ErrNotExploded       = errors.New("bomb has not exploded")
	ErrStale             = errors.New("event belongs to a previous round")
	ErrPunishmentPending = errors.New("punishment is still being generated")
	ErrMalformedReply    = errors.New("generator reply is malformed")
	ErrNoGenerator       = errors.New("no generator configured")
)

// Phase is the screen the session is on.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseResult  Phase = "result"
)

// Mode selects which engine picks the loser.
type Mode string

const (
	ModeWheel    Mode = "wheel"
	ModeSurvival Mode = "survival"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWheel, ModeSurvival:
		return m, nil
	}
	return "", ErrInvalidSetting
}

// Intensity is how far the punishments are allowed to go.
type Intensity string

const (
	IntensityMild    Intensity = "mild"
	IntensitySpicy   Intensity = "spicy"
	IntensityExtreme Intensity = "extreme"
)

func ParseIntensity(s string) (Intensity, error) {
	switch i := Intensity(strings.ToLower(strings.TrimSpace(s))); i {
	case IntensityMild, IntensitySpicy, IntensityExtreme:
		return i, nil
	}
	return "", ErrInvalidSetting
}

// Description is the guidance handed to the generator for this tier.
func (i Intensity) Description() string {
	switch i {
	case IntensityMild:
		return "Funny, light physical challenge, drinking penalty, or embarrassing confession. Nothing sexual. Focus on laughter."
	case IntensitySpicy:
		return "Flirty, romantic, physical closeness (hugs, whispering, touching faces, love shot). Rated PG-13."
	case IntensityExtreme:
		return "Risque, '19+' adult party game challenge. Intense physical contact, moans, sexy poses, or deep secrets. Bold and hot."
	}
	return ""
}

// Language is one of the three display languages.
type Language string

const (
	LanguageKorean  Language = "ko"
	LanguageEnglish Language = "en"
	LanguageTagalog Language = "tl"
)

// Languages lists the supported display languages in preference order.
var Languages = []Language{LanguageKorean, LanguageEnglish, LanguageTagalog}

func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case LanguageKorean, LanguageEnglish, LanguageTagalog:
		return l, nil
	}
	return "", ErrInvalidSetting
}
