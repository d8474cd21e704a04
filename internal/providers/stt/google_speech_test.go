package stt

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestBestPicksMostConfident(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{
			{Transcript: "a mountain bike", Confidence: 0.62},
			{Transcript: "a mountain bike please", Confidence: 0.91},
		}},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{
			{Transcript: "", Confidence: 0.99},
		}},
	}

	text, conf := best(results)
	if text != "a mountain bike please" {
		t.Errorf("text = %q", text)
	}
	if conf < 0.9 {
		t.Errorf("confidence = %v", conf)
	}

	if text, _ := best(nil); text != "" {
		t.Errorf("empty results gave %q", text)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		" DE ":  "de-DE",
		"nl":    "nl-NL",
		"fr-FR": "fr-FR",
	}
	for in, want := range cases {
		if got := NormalizeLanguage(in); got != want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
