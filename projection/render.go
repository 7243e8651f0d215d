// Package projection computes viewer-dependent readings of persisted
// messages. Rendering is a read-time projection, never a stored field.
package projection

import (
	"sort"

	"chat-relay/domain"

	"github.com/samber/lo"
)

// RenderFor applies the rendering rule for one viewer:
//   - file messages pass through untouched
//   - the original sender always reads OriginalContent
//   - anyone else reads their preferred-language translation when cached,
//     else the lexicographically smallest cached language (deterministic
//     stand-in for the unspecified fallback), else OriginalContent
func RenderFor(viewerID, viewerLang string, msg domain.Message) domain.MessageView {
	view := domain.MessageView{
		ID:           msg.ID,
		Sender:       msg.Sender,
		Recipient:    msg.Recipient,
		ChannelID:    msg.ChannelID,
		Type:         msg.Type,
		FileURL:      msg.FileURL,
		LanguageFrom: msg.LanguageFrom,
		Timestamp:    msg.Timestamp,
	}
	if msg.Type != domain.MessageText {
		return view
	}

	if msg.Sender == viewerID {
		view.Content = msg.OriginalContent
		return view
	}

	if text, ok := msg.Translation(viewerLang); ok {
		view.Content = text
		view.IsTranslated = true
		return view
	}

	if lang, ok := firstLanguage(msg.Translations); ok {
		view.Content = msg.Translations[lang]
		view.IsTranslated = true
		return view
	}

	view.Content = msg.OriginalContent
	return view
}

// RenderAll projects a whole listing for one viewer.
func RenderAll(viewerID, viewerLang string, messages []domain.Message) []domain.MessageView {
	return lo.Map(messages, func(msg domain.Message, _ int) domain.MessageView {
		return RenderFor(viewerID, viewerLang, msg)
	})
}

func firstLanguage(translations map[string]string) (string, bool) {
	if len(translations) == 0 {
		return "", false
	}
	langs := lo.Keys(translations)
	sort.Strings(langs)
	return langs[0], true
}
