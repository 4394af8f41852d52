// Package storagetest holds the behaviour every storage.Store backend must
// share. Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tablesync/internal/dependencies/mocks"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

// StartTime is the clock value stores are created with
var StartTime = time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)

// Suite is a testify suite exercising a Store. NewStore is called once per
// test and must return an empty store.
type Suite struct {
	suite.Suite

	NewStore func(clk *mocks.MockClock) storage.Store

	store storage.Store
	clock *mocks.MockClock
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.clock = mocks.NewMockClock(StartTime)
	s.store = s.NewStore(s.clock)
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// NewPlayer returns valid creation input with the given name
func NewPlayer(name string) model.NewPlayer {
	return model.NewPlayer{
		PlayerName:          name,
		Power:               "Flight",
		PowerDescription:    "Can fly short distances",
		Sex:                 "F",
		PhysicalDescription: "Tall, silver hair",
	}
}

func (s *Suite) createPlayer(name string) *model.Player {
	p, err := s.store.CreatePlayer(s.ctx, NewPlayer(name))
	s.Require().NoError(err)
	return p
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	created := s.createPlayer("Aria")

	s.Equal(model.PlayerID(1), created.ID)
	s.Equal("Aria", created.PlayerName)
	s.Equal(model.DefaultHP, created.CurrHP)
	s.Equal(model.DefaultHP, created.MaxHP)
	s.Equal(model.DefaultStamina, created.CurrStam)
	s.Equal(model.DefaultStamina, created.MaxStam)
	s.Equal(0, created.LastDiceRoll)
	s.True(StartTime.Equal(created.CreatedAt))

	got, err := s.store.GetPlayer(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("Aria", got.PlayerName)
	s.Equal("Flight", got.Power)
	s.Equal("Can fly short distances", got.PowerDescription)
	s.Equal("F", got.Sex)
	s.Equal("Tall, silver hair", got.PhysicalDescription)
	s.Equal(model.DefaultHP, got.CurrHP)
	s.Equal(model.DefaultStamina, got.MaxStam)
	s.True(StartTime.Equal(got.CreatedAt))
}

func (s *Suite) TestCreatePlayerRejectsMissingField() {
	in := NewPlayer("Aria")
	in.Power = ""

	_, err := s.store.CreatePlayer(s.ctx, in)
	s.Require().ErrorIs(err, model.ErrValidation)

	var ve *model.ValidationError
	s.Require().True(errors.As(err, &ve))
	s.Equal("power", ve.Field)

	players, err := s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *Suite) TestPlayerIDsIncreaseMonotonically() {
	var last model.PlayerID
	for _, name := range []string{"Aria", "Bram", "Cole", "Dara"} {
		p := s.createPlayer(name)
		s.Greater(p.ID, last)
		last = p.ID
	}
}

func (s *Suite) TestConcurrentCreatesGetUniqueIDs() {
	const n = 12
	var wg sync.WaitGroup
	ids := make(chan model.PlayerID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.store.CreatePlayer(s.ctx, NewPlayer("Racer"))
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[model.PlayerID]bool)
	for id := range ids {
		s.False(seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	s.Len(seen, n)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.store.GetPlayer(s.ctx, 999)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestListPlayersInCreationOrder() {
	players, err := s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)

	a := s.createPlayer("Aria")
	b := s.createPlayer("Bram")

	players, err = s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(a.ID, players[0].ID)
	s.Equal(b.ID, players[1].ID)
	s.Equal("Bram", players[1].PlayerName)
}

func (s *Suite) TestUpdatePlayerIntField() {
	p := s.createPlayer("Aria")

	updated, err := s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldCurrHP, model.IntValue(12))
	s.Require().NoError(err)
	s.Equal(12, updated.CurrHP)
	s.Equal(model.DefaultHP, updated.MaxHP)

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(12, got.CurrHP)
}

func (s *Suite) TestUpdatePlayerStringField() {
	p := s.createPlayer("Aria")

	_, err := s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldPower, model.StringValue("Invisibility"))
	s.Require().NoError(err)

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Invisibility", got.Power)
	s.Equal("Aria", got.PlayerName)
}

func (s *Suite) TestUpdatePlayerFieldDoesNotClamp() {
	p := s.createPlayer("Aria")

	_, err := s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldCurrStam, model.IntValue(45))
	s.Require().NoError(err)
	_, err = s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldCurrHP, model.IntValue(-2))
	s.Require().NoError(err)

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(45, got.CurrStam)
	s.Equal(-2, got.CurrHP)
}

func (s *Suite) TestUpdatePlayerFieldKeepsLargeValues() {
	p := s.createPlayer("Aria")
	const big = 1 << 40

	_, err := s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldMaxHP, model.IntValue(big))
	s.Require().NoError(err)
	_, err = s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldLastDiceRoll, model.IntValue(-big))
	s.Require().NoError(err)

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(big, got.MaxHP)
	s.Equal(-big, got.LastDiceRoll)
}

func (s *Suite) TestUpdatePlayerFieldUnknownPlayer() {
	s.createPlayer("Aria")

	_, err := s.store.UpdatePlayerField(s.ctx, 42, model.FieldCurrHP, model.IntValue(5))
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, err := s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *Suite) TestUpdatePlayerFieldNotAllowed() {
	p := s.createPlayer("Aria")

	for _, field := range []model.PlayerField{"id", "created_at", "is_host"} {
		_, err := s.store.UpdatePlayerField(s.ctx, p.ID, field, model.IntValue(5))
		s.ErrorIs(err, model.ErrFieldNotAllowed, "field %s", field)
	}

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.True(p.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestUpdatePlayerFieldWrongType() {
	p := s.createPlayer("Aria")

	_, err := s.store.UpdatePlayerField(s.ctx, p.ID, model.FieldCurrHP, model.StringValue("lots"))
	s.ErrorIs(err, model.ErrInvalidFieldValue)

	got, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(model.DefaultHP, got.CurrHP)
}

// Message tests

func (s *Suite) TestCreateMessage() {
	p := s.createPlayer("Aria")

	msg, err := s.store.CreateMessage(s.ctx, model.NewMessage{
		PlayerID: p.ID,
		Sender:   model.SenderHost,
		Content:  "A shadow moves",
		Mode:     model.ModeOOC,
	})
	s.Require().NoError(err)
	s.NotZero(msg.ID)
	s.Equal(p.ID, msg.PlayerID)
	s.Equal(model.SenderHost, msg.Sender)
	s.Equal("A shadow moves", msg.Content)
	s.Equal(model.ModeOOC, msg.Mode)
	s.True(StartTime.Equal(msg.CreatedAt))
}

func (s *Suite) TestPlayerMessagesAreAlwaysRP() {
	p := s.createPlayer("Aria")

	msg, err := s.store.CreateMessage(s.ctx, model.NewMessage{
		PlayerID: p.ID,
		Sender:   model.SenderPlayer,
		Content:  "I draw my sword",
		Mode:     model.ModeOOC,
	})
	s.Require().NoError(err)
	s.Equal(model.ModeRP, msg.Mode)

	msgs, err := s.store.ListMessagesForPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal(model.ModeRP, msgs[0].Mode)
}

func (s *Suite) TestCreateMessageUnknownPlayer() {
	_, err := s.store.CreateMessage(s.ctx, model.NewMessage{
		PlayerID: 7,
		Sender:   model.SenderHost,
		Content:  "Hello?",
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestCreateMessageRejectsEmptyContent() {
	p := s.createPlayer("Aria")

	_, err := s.store.CreateMessage(s.ctx, model.NewMessage{
		PlayerID: p.ID,
		Sender:   model.SenderPlayer,
		Content:  "  ",
	})
	s.ErrorIs(err, model.ErrValidation)

	msgs, err := s.store.ListMessagesForPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(msgs)
}

func (s *Suite) TestListMessagesForPlayerInCreationOrder() {
	a := s.createPlayer("Aria")
	b := s.createPlayer("Bram")

	send := func(id model.PlayerID, sender model.Sender, content string) {
		_, err := s.store.CreateMessage(s.ctx, model.NewMessage{PlayerID: id, Sender: sender, Content: content})
		s.Require().NoError(err)
		s.clock.Advance(time.Second)
	}
	send(a.ID, model.SenderHost, "first")
	send(b.ID, model.SenderHost, "not for Aria")
	send(a.ID, model.SenderPlayer, "second")
	send(a.ID, model.SenderHost, "third")

	msgs, err := s.store.ListMessagesForPlayer(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 3)
	s.Equal("first", msgs[0].Content)
	s.Equal("second", msgs[1].Content)
	s.Equal("third", msgs[2].Content)
	s.Less(msgs[0].ID, msgs[1].ID)
	s.Less(msgs[1].ID, msgs[2].ID)
	s.True(StartTime.Add(2 * time.Second).Equal(msgs[1].CreatedAt))
}

func (s *Suite) TestListMessagesUnknownPlayer() {
	_, err := s.store.ListMessagesForPlayer(s.ctx, 99)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
