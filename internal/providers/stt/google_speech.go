package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

// NewGoogleSpeech builds a Speech-to-Text client. An empty credentialsFile
// uses application default credentials.
func NewGoogleSpeech(ctx context.Context, credentialsFile string) (*GoogleSpeech, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	// browsers record webm/opus at 48kHz
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_WEBM_OPUS,
		SampleRateHz: 48000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	language = NormalizeLanguage(language)

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
			SpeechContexts: []*speechpb.SpeechContext{{
				Phrases: bikeVocabulary,
			}},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}

	text, conf := best(resp.GetResults())
	if text == "" {
		return "", 0, ErrNoSpeech
	}
	return text, conf, nil
}

// best picks the most confident alternative across results.
func best(results []*speechpb.SpeechRecognitionResult) (string, float64) {
	var bestText string
	var bestConf float64
	for _, r := range results {
		for _, alt := range r.GetAlternatives() {
			if alt.GetTranscript() != "" && float64(alt.GetConfidence()) >= bestConf {
				bestText = alt.GetTranscript()
				bestConf = float64(alt.GetConfidence())
			}
		}
	}
	return bestText, bestConf
}

// Shop words the recogniser tends to miss.
var bikeVocabulary = []string{
	"e-bike", "ebike", "gravel bike", "hardtail", "full suspension",
	"disc brakes", "hydraulic", "derailleur", "drivetrain", "carbon frame",
}
