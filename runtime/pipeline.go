package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/runtime/workers"
	"chat-relay/translation"

	"github.com/go-playground/validator/v10"
)

// Pipeline drives the send flows. Per message the path is:
//
//	validate -> persist -> sender echo (synchronous, original content)
//	-> file fast path OR enqueue translation job
//
// The job is enqueued only after Create returns, which is the ordering
// guarantee replacing the source system's arbitrary delivery delay.
// No lock is held across store or gateway calls.
type Pipeline struct {
	log      *slog.Logger
	registry contract.IRegistry
	messages repositories.IMessageRepository
	channels repositories.IChannelRepository
	users    contract.IUserDirectory
	gateway  *translation.Gateway
	jobs     chan workers.Job
	validate *validator.Validate
}

func NewPipeline(
	log *slog.Logger,
	registry contract.IRegistry,
	messages repositories.IMessageRepository,
	channels repositories.IChannelRepository,
	users contract.IUserDirectory,
	gateway *translation.Gateway,
	bufferSize int) *Pipeline {
	return &Pipeline{
		log:      log,
		registry: registry,
		messages: messages,
		channels: channels,
		users:    users,
		gateway:  gateway,
		jobs:     make(chan workers.Job, bufferSize),
		validate: domain.NewValidator(),
	}
}

// Workers builds the pool draining the job queue. All units share one
// channel; a slow translation in one unit never blocks the others.
func (p *Pipeline) Workers(count int) []contract.Worker {
	var pool []contract.Worker
	for i := 0; i < count; i++ {
		pool = append(pool, workers.NewTranslatorWorker(
			p.jobs, p.users, p.messages, p.channels, p.gateway, p.registry, p.log))
	}
	return pool
}

// SendDirect runs the direct-message flow. Persistence failure aborts
// the send; everything after persistence degrades instead of failing.
func (p *Pipeline) SendDirect(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := p.validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}

	msg, err := p.messages.Create(domain.Message{
		Sender:    cmd.Sender,
		Recipient: cmd.Recipient,
		Type:      cmd.Type,
		Content:   cmd.Content,
		FileURL:   cmd.FileURL,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("message persistence failed: %w", err)
	}

	// The sender's echo always shows the canonical text, so their view
	// can never be altered by a later translation race.
	p.deliver(ctx, cmd.Sender, event.DirectMessage{Message: senderView(msg)})

	if msg.Type != domain.MessageText {
		p.deliver(ctx, cmd.Recipient, event.DirectMessage{Message: senderView(msg)})
		return msg, nil
	}

	p.enqueue(ctx, workers.Job{Message: msg})
	return msg, nil
}

// SendChannel runs the channel flow: same persistence and sender echo,
// file messages fan out synchronously, text goes through the job queue
// where gateway calls are deduplicated per target language.
func (p *Pipeline) SendChannel(ctx context.Context, cmd domain.SendChannelMessageCommand) (domain.Message, error) {
	if err := p.validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}

	channel, err := p.channels.Get(cmd.ChannelID)
	if err != nil {
		return domain.Message{}, err
	}

	msg, err := p.messages.Create(domain.Message{
		Sender:    cmd.Sender,
		ChannelID: cmd.ChannelID,
		Type:      cmd.Type,
		Content:   cmd.Content,
		FileURL:   cmd.FileURL,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("message persistence failed: %w", err)
	}

	if err := p.channels.AppendMessage(cmd.ChannelID, msg.ID); err != nil {
		p.log.Error("Appending message reference failed", "channel", cmd.ChannelID, "error", err)
	}

	p.deliver(ctx, cmd.Sender, event.ChannelMessage{Message: senderView(msg), ChannelID: cmd.ChannelID})

	if msg.Type != domain.MessageText {
		for _, member := range channel.Audience(cmd.Sender) {
			p.deliver(ctx, member, event.ChannelMessage{Message: senderView(msg), ChannelID: cmd.ChannelID})
		}
		return msg, nil
	}

	p.enqueue(ctx, workers.Job{Message: msg})
	return msg, nil
}

// deliver pushes an event to a user's live connection, if any. Absence
// is not an error: the store remains the durable record.
func (p *Pipeline) deliver(ctx context.Context, userID string, e event.DeliveryEvent) {
	sink, ok := p.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		p.log.Warn("Live delivery failed", "user", userID, "error", err)
	}
}

// enqueue schedules the translation continuation. The non-blocking send
// runs first: a persisted message must reach the queue even when the
// request context is already canceled, as long as the buffer has room.
func (p *Pipeline) enqueue(ctx context.Context, job workers.Job) {
	select {
	case p.jobs <- job:
		return
	default:
	}
	select {
	case p.jobs <- job:
	case <-ctx.Done():
		p.log.Warn("Context canceled before translation was scheduled",
			"message", job.Message.ID)
	}
}

// senderView is the canonical rendering: original content, untranslated.
func senderView(msg domain.Message) domain.MessageView {
	return domain.MessageView{
		ID:           msg.ID,
		Sender:       msg.Sender,
		Recipient:    msg.Recipient,
		ChannelID:    msg.ChannelID,
		Type:         msg.Type,
		Content:      msg.OriginalContent,
		FileURL:      msg.FileURL,
		LanguageFrom: msg.LanguageFrom,
		Timestamp:    msg.Timestamp,
	}
}
