package repositories

import (
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_Channel(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(openTestDB(t))

	created, err := repository.Create(domain.Channel{
		Name:    "general",
		Admin:   "alice",
		Members: []string{"bob", "clara"},
	})
	req.NoError(err)
	req.NotEmpty(created.ID)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(created.Name, fetched.Name)
	req.Equal(created.Admin, fetched.Admin)
	req.Equal(created.Members, fetched.Members)
}

func Test_Append_Message_Is_Append_Only(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(openTestDB(t))

	channel, err := repository.Create(domain.Channel{Name: "general", Admin: "alice", Members: []string{"bob"}})
	req.NoError(err)

	first := uuid.New()
	second := uuid.New()
	req.NoError(repository.AppendMessage(channel.ID, first))
	req.NoError(repository.AppendMessage(channel.ID, second))

	fetched, err := repository.Get(channel.ID)
	req.NoError(err)
	req.Equal([]uuid.UUID{first, second}, fetched.Messages)
}

func Test_Get_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(openTestDB(t))

	_, err := repository.Get("nope")
	req.ErrorIs(err, errors.ErrChannelNotFound)
}
