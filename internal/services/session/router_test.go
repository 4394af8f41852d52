package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/mcoot/tablesync/internal/dependencies/mocks"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/storage/memory"
	storagemocks "github.com/mcoot/tablesync/internal/storage/mocks"
	"github.com/mcoot/tablesync/internal/testutil"
)

// recordingBroadcaster captures broadcast events in order
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *recordingBroadcaster) Broadcast(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) Events() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Event(nil), b.events...)
}

// recordingMetrics captures processed and dropped counts
type recordingMetrics struct {
	mu        sync.Mutex
	processed map[string]int
	dropped   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{processed: map[string]int{}, dropped: map[string]int{}}
}

func (m *recordingMetrics) EventProcessed(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[event]++
}

func (m *recordingMetrics) EventDropped(event, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[event+"/"+reason]++
}

type RouterSuite struct {
	suite.Suite
	store       *memory.Storage
	broadcaster *recordingBroadcaster
	metrics     *recordingMetrics
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	router      *Router
	ctx         context.Context
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.store = memory.New(s.clock)
	s.broadcaster = &recordingBroadcaster{}
	s.metrics = newRecordingMetrics()
	s.router = NewRouter(s.store, s.broadcaster, s.clock, s.random, s.metrics, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func newPlayerInput(name string) model.NewPlayer {
	return model.NewPlayer{
		PlayerName:          name,
		Power:               "Flight",
		PowerDescription:    "Can fly short distances",
		Sex:                 "F",
		PhysicalDescription: "Tall, silver hair",
	}
}

func (s *RouterSuite) createPlayer(name string) *model.Player {
	p, err := s.router.CreatePlayer(s.ctx, newPlayerInput(name))
	s.Require().NoError(err)
	return p
}

func intPtr(n int) *int {
	return &n
}

// CreatePlayer tests

func (s *RouterSuite) TestCreatePlayerBroadcastsToEveryone() {
	p := s.createPlayer("Aria")

	s.Equal(model.PlayerID(1), p.ID)
	events := s.broadcaster.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventPlayerCreated, events[0].Type)
	s.Equal(model.PlayerCreatedPayload{ID: 1, Name: "Aria"}, events[0].Payload)
	s.Equal(1, s.metrics.processed["create_player"])
}

func (s *RouterSuite) TestCreatePlayerValidationNoBroadcast() {
	in := newPlayerInput("Aria")
	in.Sex = ""

	_, err := s.router.CreatePlayer(s.ctx, in)
	s.ErrorIs(err, model.ErrValidation)
	s.Empty(s.broadcaster.Events())
	s.Equal(1, s.metrics.dropped["create_player/validation"])
}

func (s *RouterSuite) TestCreateThenGetReturnsDefaults() {
	p := s.createPlayer("Aria")

	got, err := s.router.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Aria", got.PlayerName)
	s.Equal(20, got.CurrHP)
	s.Equal(20, got.MaxHP)
	s.Equal(20, got.CurrStam)
	s.Equal(20, got.MaxStam)
	s.Equal(0, got.LastDiceRoll)
}

func (s *RouterSuite) TestListPlayersIncludesEveryCreatedPlayer() {
	a := s.createPlayer("Aria")
	b := s.createPlayer("Bram")

	players, err := s.router.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(a.ID, players[0].ID)
	s.Equal(b.ID, players[1].ID)
	s.Greater(b.ID, a.ID)
}

// RollDice tests

func (s *RouterSuite) TestRollDiceWithSuppliedRoll() {
	p := s.createPlayer("Aria")

	updated, err := s.router.RollDice(s.ctx, RollRequest{PlayerID: p.ID, Roll: intPtr(15)})
	s.Require().NoError(err)
	s.Equal(15, updated.LastDiceRoll)

	stored, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(15, stored.LastDiceRoll)

	events := s.broadcaster.Events()
	s.Require().Len(events, 2)
	s.Equal(model.EventPlayerRolled, events[1].Type)
	s.Equal(model.PlayerRolledPayload{ID: 1, Name: "Aria", Roll: 15}, events[1].Payload)
	s.Empty(s.random.Sides)
}

func (s *RouterSuite) TestRollDiceServerSide() {
	p := s.createPlayer("Aria")
	s.random.QueueRolls(17, 4)

	updated, err := s.router.RollDice(s.ctx, RollRequest{PlayerID: p.ID})
	s.Require().NoError(err)
	s.Equal(17, updated.LastDiceRoll)

	updated, err = s.router.RollDice(s.ctx, RollRequest{PlayerID: p.ID, Sides: 6})
	s.Require().NoError(err)
	s.Equal(4, updated.LastDiceRoll)

	s.Equal([]int{20, 6}, s.random.Sides)
}

func (s *RouterSuite) TestRollDiceUnknownPlayerIsDropped() {
	s.createPlayer("Aria")

	_, err := s.router.RollDice(s.ctx, RollRequest{PlayerID: 99, Roll: intPtr(3)})
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.True(IsSilentDrop(err))
	s.Len(s.broadcaster.Events(), 1)
	s.Equal(1, s.metrics.dropped["roll_dice/player_not_found"])
}

// UpdateStat tests

func (s *RouterSuite) TestUpdateStat() {
	p := s.createPlayer("Aria")

	updated, err := s.router.UpdateStat(s.ctx, p.ID, model.StatHP, intPtr(12))
	s.Require().NoError(err)
	s.Equal(12, updated.CurrHP)

	updated, err = s.router.UpdateStat(s.ctx, p.ID, model.StatStamina, intPtr(30))
	s.Require().NoError(err)
	s.Equal(30, updated.CurrStam)
	s.Equal(20, updated.MaxStam)

	events := s.broadcaster.Events()
	s.Require().Len(events, 3)
	s.Equal(model.StatUpdatedPayload{ID: p.ID, Type: model.StatHP, Value: 12}, events[1].Payload)
	s.Equal(model.StatUpdatedPayload{ID: p.ID, Type: model.StatStamina, Value: 30}, events[2].Payload)
}

func (s *RouterSuite) TestUpdateStatInvalidType() {
	p := s.createPlayer("Aria")

	_, err := s.router.UpdateStat(s.ctx, p.ID, "max_hp", intPtr(99))
	s.ErrorIs(err, model.ErrInvalidStat)
	s.Len(s.broadcaster.Events(), 1)
	s.Equal(1, s.metrics.dropped["update_stat/invalid_stat"])
}

func (s *RouterSuite) TestUpdateStatMissingValueChangesNothing() {
	p := s.createPlayer("Aria")

	_, err := s.router.UpdateStat(s.ctx, p.ID, model.StatHP, nil)
	s.ErrorIs(err, model.ErrInvalidFieldValue)
	s.True(IsSilentDrop(err))

	stored, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(20, stored.CurrHP)
	s.Len(s.broadcaster.Events(), 1)
	s.Equal(1, s.metrics.dropped["update_stat/invalid_value"])
}

func (s *RouterSuite) TestUpdateStatUnknownPlayerChangesNothing() {
	p := s.createPlayer("Aria")

	_, err := s.router.UpdateStat(s.ctx, 42, model.StatHP, intPtr(1))
	s.ErrorIs(err, model.ErrPlayerNotFound)

	stored, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(20, stored.CurrHP)
	s.Len(s.broadcaster.Events(), 1)
}

// UpdatePlayerField tests

func (s *RouterSuite) TestUpdatePlayerField() {
	p := s.createPlayer("Aria")

	updated, err := s.router.UpdatePlayerField(s.ctx, p.ID, model.FieldPower, model.StringValue("Invisibility"))
	s.Require().NoError(err)
	s.Equal("Invisibility", updated.Power)

	events := s.broadcaster.Events()
	s.Require().Len(events, 2)
	s.Equal(model.EventPlayerUpdated, events[1].Type)
	s.Equal(model.PlayerUpdatedPayload{ID: p.ID, Field: model.FieldPower, Value: "Invisibility"}, events[1].Payload)
}

func (s *RouterSuite) TestUpdateDisallowedFieldChangesNothing() {
	p := s.createPlayer("Aria")

	_, err := s.router.UpdatePlayerField(s.ctx, p.ID, "id", model.IntValue(9))
	s.ErrorIs(err, model.ErrFieldNotAllowed)
	s.True(IsSilentDrop(err))

	stored, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p, stored)
	s.Len(s.broadcaster.Events(), 1)
	s.Equal(1, s.metrics.dropped["update_player_field/field_not_allowed"])
}

func (s *RouterSuite) TestUpdatePlayerFieldJSON() {
	p := s.createPlayer("Aria")

	updated, err := s.router.UpdatePlayerFieldJSON(s.ctx, p.ID, model.FieldMaxHP, []byte("30"))
	s.Require().NoError(err)
	s.Equal(30, updated.MaxHP)
	s.Equal(1, s.metrics.processed["update_player_field"])
}

func (s *RouterSuite) TestUpdatePlayerFieldJSONWrongTypeIsDropped() {
	p := s.createPlayer("Aria")

	_, err := s.router.UpdatePlayerFieldJSON(s.ctx, p.ID, model.FieldMaxHP, []byte(`"thirty"`))
	s.ErrorIs(err, model.ErrInvalidFieldValue)
	s.Len(s.broadcaster.Events(), 1)
	s.Equal(1, s.metrics.dropped["update_player_field/invalid_value"])
}

func (s *RouterSuite) TestRejectRecordsDrop() {
	s.router.Reject("list_players", auth.ErrUnauthorized)
	s.router.Reject("roll_dice", ErrMalformedEvent)

	s.Equal(1, s.metrics.dropped["list_players/unauthorized"])
	s.Equal(1, s.metrics.dropped["roll_dice/malformed"])
	s.Empty(s.broadcaster.Events())
}

// Message tests

func (s *RouterSuite) TestHostMessageBroadcastOnPlayerChannel() {
	s.createPlayer("Aria")
	s.createPlayer("Bram")

	msg, err := s.router.SendHostMessage(s.ctx, 2, "You hear footsteps", model.ModeOOC)
	s.Require().NoError(err)
	s.Equal(model.SenderHost, msg.Sender)
	s.Equal(model.ModeOOC, msg.Mode)

	stored, err := s.store.ListMessagesForPlayer(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("You hear footsteps", stored[0].Content)

	events := s.broadcaster.Events()
	s.Require().Len(events, 3)
	s.Equal(model.EventType("new_message_2"), events[2].Type)
	s.Equal(msg, events[2].Payload)
}

func (s *RouterSuite) TestPlayerMessageIsAlwaysRP() {
	p := s.createPlayer("Aria")

	msg, err := s.router.SendPlayerMessage(s.ctx, p.ID, "I open the door")
	s.Require().NoError(err)
	s.Equal(model.SenderPlayer, msg.Sender)
	s.Equal(model.ModeRP, msg.Mode)

	history, err := s.router.ListMessages(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(model.ModeRP, history[0].Mode)
}

func (s *RouterSuite) TestEmptyMessageDropped() {
	p := s.createPlayer("Aria")

	_, err := s.router.SendPlayerMessage(s.ctx, p.ID, "   ")
	s.ErrorIs(err, model.ErrValidation)
	s.True(IsSilentDrop(err))
	s.Len(s.broadcaster.Events(), 1)
}

func (s *RouterSuite) TestMessageToUnknownPlayerDropped() {
	_, err := s.router.SendHostMessage(s.ctx, 5, "hello", model.ModeRP)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Empty(s.broadcaster.Events())
}

// Heartbeat tests

func (s *RouterSuite) TestHeartbeatEchoesToEveryone() {
	s.router.Heartbeat()

	events := s.broadcaster.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventHeartbeat, events[0].Type)
	s.Equal(model.HeartbeatPayload{}, events[0].Payload)
	s.Equal(1, s.metrics.processed["increment"])
}

// Ordering tests

func (s *RouterSuite) TestConcurrentUpdatesBroadcastInCommitOrder() {
	p := s.createPlayer("Aria")

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, _ = s.router.UpdateStat(s.ctx, p.ID, model.StatHP, intPtr(v))
		}(i)
	}
	wg.Wait()

	events := s.broadcaster.Events()
	s.Require().Len(events, 21)
	last := events[20].Payload.(model.StatUpdatedPayload)

	stored, err := s.store.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(last.Value, stored.CurrHP)
}

// Store failure tests

type RouterStoreFailureSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	store       *storagemocks.MockStore
	broadcaster *recordingBroadcaster
	metrics     *recordingMetrics
	router      *Router
	ctx         context.Context
}

func TestRouterStoreFailureSuite(t *testing.T) {
	suite.Run(t, new(RouterStoreFailureSuite))
}

func (s *RouterStoreFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = storagemocks.NewMockStore(s.ctrl)
	s.broadcaster = &recordingBroadcaster{}
	s.metrics = newRecordingMetrics()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.router = NewRouter(s.store, s.broadcaster, clk, mocks.NewMockRandom(), s.metrics, testutil.NopLogger(),
		Config{OpTimeout: 50 * time.Millisecond, DiceSides: 20})
	s.ctx = context.Background()
}

func (s *RouterStoreFailureSuite) TestStoreErrorMeansNoBroadcast() {
	s.store.EXPECT().
		UpdatePlayerField(gomock.Any(), model.PlayerID(1), model.FieldCurrHP, model.IntValue(3)).
		Return(nil, errors.New("disk I/O error"))

	_, err := s.router.UpdateStat(s.ctx, 1, model.StatHP, intPtr(3))
	s.Error(err)
	s.True(IsSilentDrop(err))
	s.Empty(s.broadcaster.Events())
	s.Equal(1, s.metrics.dropped["update_stat/store_error"])
}

func (s *RouterStoreFailureSuite) TestStoreTimeoutMeansNoBroadcast() {
	s.store.EXPECT().
		CreateMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ model.NewMessage) (*model.Message, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	_, err := s.router.SendPlayerMessage(s.ctx, 1, "hello")
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Empty(s.broadcaster.Events())
	s.Equal(1, s.metrics.dropped["player_message/timeout"])
}

func (s *RouterStoreFailureSuite) TestUnauthorizedIsNotSilent() {
	s.False(IsSilentDrop(auth.ErrUnauthorized))
	s.False(IsSilentDrop(nil))
	s.Equal(ReasonUnauthorized, DropReason(auth.ErrUnauthorized))
}
