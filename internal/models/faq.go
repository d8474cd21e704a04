package models

import "fmt"

type FAQEntry struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (f FAQEntry) Text() string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", f.Question, f.Answer)
}

type ScoredFAQ struct {
	Entry FAQEntry `json:"entry"`
	Score float32  `json:"score"`
}
