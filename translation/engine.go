package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chat-relay/errors"

	"github.com/tidwall/gjson"
)

// Translator converts text between two language codes. The forced flag
// asks the engine to re-render text even when source and target codes
// match (romanized Hindi to Devanagari).
type Translator interface {
	Translate(ctx context.Context, text, from, to string, forced bool) (string, error)
}

// HTTPEngine calls a LibreTranslate-compatible endpoint. The engine is a
// black box here: only its call contract and failure behavior matter.
type HTTPEngine struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

func NewHTTPEngine(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

func (e *HTTPEngine) Translate(ctx context.Context, text, from, to string, forced bool) (string, error) {
	source := from
	if forced {
		// Same-language request: let the engine re-detect so it
		// renders the text in the target's canonical script.
		source = "auto"
	}
	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: source,
		Target: to,
		Format: "text",
		APIKey: e.apiKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		reason := gjson.GetBytes(body, "error").String()
		e.log.Warn("Translation engine refused request",
			"status", resp.StatusCode,
			"from", from, "to", to,
			"reason", reason)
		return "", fmt.Errorf("%w: status %d: %s", errors.ErrTranslationRejected, resp.StatusCode, reason)
	}

	translated := gjson.GetBytes(body, "translatedText")
	if !translated.Exists() {
		return "", fmt.Errorf("%w: missing translatedText", errors.ErrTranslationRejected)
	}
	return translated.String(), nil
}
