// Package stt turns voice messages into text.
package stt

import (
	"context"
	"errors"
	"strings"
)

// ErrNoSpeech is returned when the audio holds nothing the recogniser could read.
var ErrNoSpeech = errors.New("stt: no speech recognised")

const DefaultLanguage = "en-US"

type Provider interface {
	// Transcribe returns the best transcript of audio and its confidence in [0,1].
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

var languageAliases = map[string]string{
	"":   DefaultLanguage,
	"en": DefaultLanguage,
	"de": "de-DE",
	"nl": "nl-NL",
}

// NormalizeLanguage maps short codes sent by clients to BCP-47 tags.
// Full tags pass through unchanged.
func NormalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	if tag, ok := languageAliases[strings.ToLower(v)]; ok {
		return tag
	}
	return v
}
