package translation

import (
	"context"
	"log/slog"
)

// Gateway fronts the detection and translation engines with the failure
// semantics the pipeline relies on: detection fails soft to the caller's
// hint, translation surfaces its error so the caller can degrade to the
// original text.
type Gateway struct {
	detector   Detector
	translator Translator
	log        *slog.Logger
}

func NewGateway(detector Detector, translator Translator, log *slog.Logger) *Gateway {
	return &Gateway{detector: detector, translator: translator, log: log}
}

// DetectLanguage never fails. Detection is advisory: on any detector
// error the hint (the sender's preferred language) is assumed instead.
func (g *Gateway) DetectLanguage(text, hint string) string {
	code, err := g.detector.Detect(text)
	if err != nil {
		g.log.Debug("Detection fell back to hint", "hint", hint, "error", err)
		return hint
	}
	return code
}

// TranslateText translates text from one language to another, forcing a
// same-language re-render when asked.
func (g *Gateway) TranslateText(ctx context.Context, text, from, to string, forced bool) (string, error) {
	return g.translator.Translate(ctx, text, from, to, forced)
}
