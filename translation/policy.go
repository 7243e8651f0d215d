// Package translation decides when a message needs translating and talks
// to the engines that detect and translate.
//
// The policy half of the package exists because detection models
// misclassify romanized Hindi ("Hinglish") as English, or as Hindi
// without distinguishing script. The word list and length threshold
// below are tunable heuristics, not correctness guarantees.
package translation

import "regexp"

const (
	Hindi   = "hi"
	English = "en"
)

var (
	// Common Hindi function words spelled in Latin script.
	hinglishWords = regexp.MustCompile(`(?i)\b(?:main|tum|kya|kese|nahi|hai|ho|ka|ke|ki|aap|yeh|woh|kuch|acha)\b`)
	// Plain Latin text of a minimum length; anything containing digits
	// or other scripts never qualifies as Hinglish.
	latinSentence = regexp.MustCompile(`^[a-zA-Z\s.,!?']{4,}$`)
	devanagari    = regexp.MustCompile(`[\x{0900}-\x{097F}]`)
)

// LooksLikeHinglish reports whether text reads as Hindi written in Latin
// script.
func LooksLikeHinglish(text string) bool {
	return latinSentence.MatchString(text) && hinglishWords.MatchString(text)
}

// ContainsDevanagari reports whether text carries any native Hindi script.
func ContainsDevanagari(text string) bool {
	return devanagari.MatchString(text)
}

// Normalize corrects the detected language for the Hinglish case: a
// Hindi-speaking sender whose Latin-script text was detected as English
// is assumed to be writing romanized Hindi.
func Normalize(detected, senderPreferred, raw string) string {
	if detected == English && senderPreferred == Hindi && LooksLikeHinglish(raw) {
		return Hindi
	}
	return detected
}

// Decision is the outcome of the translation policy for one recipient.
// Forced is true only for the same-language romanized-Hindi case, where
// the engine must re-render the text in Devanagari even though source
// and target codes match.
type Decision struct {
	Translate bool
	Forced    bool
}

// Decide applies the policy for a single recipient. Base rule: translate
// iff the recipient's preferred language differs from the detected one.
// Override: Hindi-to-Hindi still translates when the text carries no
// Devanagari, converting romanized Hindi into native script.
func Decide(detected, recipientPreferred, raw string) Decision {
	if recipientPreferred == "" {
		return Decision{}
	}
	if recipientPreferred == Hindi && detected == Hindi {
		if !ContainsDevanagari(raw) || LooksLikeHinglish(raw) {
			return Decision{Translate: true, Forced: true}
		}
		return Decision{}
	}
	if recipientPreferred != detected {
		return Decision{Translate: true}
	}
	return Decision{}
}
