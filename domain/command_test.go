package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidator_Accepts_Text_With_Content(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: MessageText, Content: "hello",
	})

	req.NoError(err)
}

func TestValidator_Rejects_Text_Without_Content(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: MessageText,
	})

	req.Error(err)
	req.Contains(err.Error(), "required_for_text")
}

func TestValidator_Rejects_File_Without_URL(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: MessageFile, Content: "ignored",
	})

	req.Error(err)
	req.Contains(err.Error(), "required_for_file")
}

func TestValidator_Accepts_File_With_URL(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: MessageFile, FileURL: "uploads/x.png",
	})

	req.NoError(err)
}

func TestValidator_Rejects_Unknown_Type(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{
		Sender: "alice", Recipient: "bob", Type: "sticker", Content: "hello",
	})

	req.Error(err)
}

func TestValidator_Rejects_Missing_Participants(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendMessageCommand{Type: MessageText, Content: "hello"})

	req.Error(err)
}

func TestValidator_Channel_Command_Requires_Channel(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendChannelMessageCommand{
		Sender: "alice", Type: MessageText, Content: "hello",
	})

	req.Error(err)
}

func TestValidator_Channel_Command_Text_Needs_Content(t *testing.T) {
	req := require.New(t)
	validate := NewValidator()

	err := validate.Struct(SendChannelMessageCommand{
		ChannelID: "general", Sender: "alice", Type: MessageText,
	})

	req.Error(err)
	req.Contains(err.Error(), "required_for_text")
}
