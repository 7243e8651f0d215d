package workers

import (
	"context"
	"log/slog"
	"sort"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/translation"
)

// TranslationFailedSuffix marks a delivered text whose translation could
// not be produced. The message itself is never lost.
const TranslationFailedSuffix = " [Translation failed]"

// Job is the deferred continuation of a text-message send: everything
// after persistence and the synchronous sender echo.
type Job struct {
	Message domain.Message
}

var _ contract.Worker = (*TranslatorWorker)(nil)

// TranslatorWorker drains the job queue: detect the source language,
// apply the policy, translate, persist, then look the recipient up fresh
// and deliver. One job is independent of every other; no ordering exists
// across jobs. Nothing is retried and nothing is queued for absent
// recipients; the store is the durable record.
type TranslatorWorker struct {
	jobs     chan Job
	users    contract.IUserDirectory
	messages repositories.IMessageRepository
	channels repositories.IChannelRepository
	gateway  *translation.Gateway
	registry contract.IRegistry
	log      *slog.Logger
}

func NewTranslatorWorker(
	jobs chan Job,
	users contract.IUserDirectory,
	messages repositories.IMessageRepository,
	channels repositories.IChannelRepository,
	gateway *translation.Gateway,
	registry contract.IRegistry,
	log *slog.Logger) *TranslatorWorker {
	return &TranslatorWorker{
		jobs:     jobs,
		users:    users,
		messages: messages,
		channels: channels,
		gateway:  gateway,
		registry: registry,
		log:      log,
	}
}

func (w *TranslatorWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if job.Message.ChannelID == "" {
				w.processDirect(ctx, job)
			} else {
				w.processChannel(ctx, job)
			}
		}
	}
}

// detect resolves the source language, correcting the Hinglish case, and
// records it on the message. Recording failure is logged, not fatal: the
// job still delivers.
func (w *TranslatorWorker) detect(job Job, sender domain.User) string {
	detected := w.gateway.DetectLanguage(job.Message.OriginalContent, sender.Language())
	detected = translation.Normalize(detected, sender.Language(), job.Message.OriginalContent)
	if err := w.messages.SetDetectedLanguage(job.Message.ID, detected); err != nil {
		w.log.Error("Recording detected language failed", "message", job.Message.ID, "error", err)
	}
	return detected
}

func (w *TranslatorWorker) processDirect(ctx context.Context, job Job) {
	sender, err := w.users.GetUser(job.Message.Sender)
	if err != nil {
		w.log.Warn("Skipping translation, sender unknown", "sender", job.Message.Sender, "error", err)
		return
	}
	recipient, err := w.users.GetUser(job.Message.Recipient)
	if err != nil {
		w.log.Warn("Skipping translation, recipient unknown", "recipient", job.Message.Recipient, "error", err)
		return
	}

	detected := w.detect(job, sender)
	decision := translation.Decide(detected, recipient.Language(), job.Message.OriginalContent)

	finalText := job.Message.OriginalContent
	if decision.Translate {
		translated, err := w.gateway.TranslateText(ctx, job.Message.OriginalContent, detected, recipient.Language(), decision.Forced)
		if err != nil {
			w.log.Warn("Translation failed, delivering original",
				"message", job.Message.ID,
				"from", detected, "to", recipient.Language(),
				"error", err)
			finalText = job.Message.OriginalContent + TranslationFailedSuffix
		} else {
			finalText = translated
			if err := w.messages.AppendTranslation(job.Message.ID, recipient.Language(), translated); err != nil {
				w.log.Error("Caching translation failed", "message", job.Message.ID, "error", err)
			}
		}
	}

	// Lookup is performed after the translation gap on purpose: the
	// recipient may have connected or dropped since the send.
	sink, ok := w.registry.Lookup(job.Message.Recipient)
	if !ok {
		return
	}
	view := w.view(job, detected, finalText, decision.Translate)
	if err := sink.Consume(ctx, event.DirectMessage{Message: view}); err != nil {
		w.log.Warn("Recipient delivery failed", "recipient", job.Message.Recipient, "error", err)
	}
}

func (w *TranslatorWorker) processChannel(ctx context.Context, job Job) {
	channel, err := w.channels.Get(job.Message.ChannelID)
	if err != nil {
		w.log.Warn("Skipping translation, channel unknown", "channel", job.Message.ChannelID, "error", err)
		return
	}
	sender, err := w.users.GetUser(job.Message.Sender)
	if err != nil {
		w.log.Warn("Skipping translation, sender unknown", "sender", job.Message.Sender, "error", err)
		return
	}

	detected := w.detect(job, sender)

	// Translation work is deduplicated by target language, not by
	// member: five members sharing a language cost one engine call.
	audience := channel.Audience(job.Message.Sender)
	members := make(map[string]domain.User, len(audience))
	var targets []string
	seen := make(map[string]struct{})
	for _, id := range audience {
		user, err := w.users.GetUser(id)
		if err != nil {
			w.log.Warn("Channel member unknown, skipping", "member", id, "error", err)
			continue
		}
		members[id] = user
		if _, ok := seen[user.Language()]; !ok {
			seen[user.Language()] = struct{}{}
			targets = append(targets, user.Language())
		}
	}
	sort.Strings(targets)

	renderings := make(map[string]string, len(targets))
	for _, lang := range targets {
		decision := translation.Decide(detected, lang, job.Message.OriginalContent)
		if !decision.Translate {
			renderings[lang] = job.Message.OriginalContent
			continue
		}
		translated, err := w.gateway.TranslateText(ctx, job.Message.OriginalContent, detected, lang, decision.Forced)
		if err != nil {
			w.log.Warn("Channel translation failed, delivering original",
				"message", job.Message.ID, "to", lang, "error", err)
			renderings[lang] = job.Message.OriginalContent
			continue
		}
		renderings[lang] = translated
		if err := w.messages.AppendTranslation(job.Message.ID, lang, translated); err != nil {
			w.log.Error("Caching translation failed", "message", job.Message.ID, "error", err)
		}
	}

	for _, id := range audience {
		user, ok := members[id]
		if !ok {
			continue
		}
		sink, ok := w.registry.Lookup(id)
		if !ok {
			continue
		}
		text, ok := renderings[user.Language()]
		if !ok {
			text = job.Message.OriginalContent
		}
		view := w.view(job, detected, text, text != job.Message.OriginalContent)
		err := sink.Consume(ctx, event.ChannelMessage{Message: view, ChannelID: job.Message.ChannelID})
		if err != nil {
			w.log.Warn("Member delivery failed", "member", id, "error", err)
		}
	}
}

func (w *TranslatorWorker) view(job Job, detected, text string, isTranslated bool) domain.MessageView {
	return domain.MessageView{
		ID:           job.Message.ID,
		Sender:       job.Message.Sender,
		Recipient:    job.Message.Recipient,
		ChannelID:    job.Message.ChannelID,
		Type:         domain.MessageText,
		Content:      text,
		LanguageFrom: detected,
		IsTranslated: isTranslated,
		Timestamp:    job.Message.Timestamp,
	}
}
