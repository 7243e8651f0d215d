package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/projection"
	"chat-relay/repositories"
	"chat-relay/runtime"
)

type IChatService interface {
	SendDirect(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	SendChannel(ctx context.Context, cmd domain.SendChannelMessageCommand) (domain.Message, error)
	ListConversation(viewerID, otherID string) ([]domain.MessageView, error)
	ListChannel(viewerID, channelID string) ([]domain.MessageView, error)
	CreateChannel(name, admin string, members []string) (domain.Channel, error)
	Connect(userID string, sink contract.EventSink)
	Disconnect(sink contract.EventSink)
}

type ChatService struct {
	pipeline *runtime.Pipeline
	registry contract.IRegistry
	messages repositories.IMessageRepository
	channels repositories.IChannelRepository
	users    contract.IUserDirectory
}

func NewChatService(
	pipeline *runtime.Pipeline,
	registry contract.IRegistry,
	messages repositories.IMessageRepository,
	channels repositories.IChannelRepository,
	users contract.IUserDirectory) *ChatService {
	return &ChatService{
		pipeline: pipeline,
		registry: registry,
		messages: messages,
		channels: channels,
		users:    users,
	}
}

func (s *ChatService) SendDirect(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	return s.pipeline.SendDirect(ctx, cmd)
}

func (s *ChatService) SendChannel(ctx context.Context, cmd domain.SendChannelMessageCommand) (domain.Message, error) {
	return s.pipeline.SendChannel(ctx, cmd)
}

// ListConversation returns the viewer's reading of the conversation,
// oldest first. The rendering recomputes each message's effective
// content from persisted state, so a recipient who missed live delivery
// still reads the correct translation here.
func (s *ChatService) ListConversation(viewerID, otherID string) ([]domain.MessageView, error) {
	messages, err := s.messages.ListConversation(viewerID, otherID)
	if err != nil {
		return nil, err
	}
	return projection.RenderAll(viewerID, s.viewerLanguage(viewerID), messages), nil
}

// ListChannel returns the viewer's reading of the channel history.
func (s *ChatService) ListChannel(viewerID, channelID string) ([]domain.MessageView, error) {
	messages, err := s.messages.ListChannel(channelID)
	if err != nil {
		return nil, err
	}
	return projection.RenderAll(viewerID, s.viewerLanguage(viewerID), messages), nil
}

func (s *ChatService) CreateChannel(name, admin string, members []string) (domain.Channel, error) {
	return s.channels.Create(domain.Channel{
		Name:    name,
		Admin:   admin,
		Members: members,
	})
}

func (s *ChatService) Connect(userID string, sink contract.EventSink) {
	s.registry.Register(userID, sink)
}

func (s *ChatService) Disconnect(sink contract.EventSink) {
	s.registry.Unregister(sink)
}

// viewerLanguage falls back to the baseline when the directory has no
// entry, matching the read path of the source system.
func (s *ChatService) viewerLanguage(viewerID string) string {
	user, err := s.users.GetUser(viewerID)
	if err != nil {
		return domain.DefaultLanguage
	}
	return user.Language()
}
