package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mcoot/tablesync/internal/api/apierr"
	"github.com/mcoot/tablesync/internal/api/request"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/services/session"
)

// Inbound event names
const (
	EventCreatePlayer      = "create_player"
	EventGetPlayer         = "get_player"
	EventListPlayers       = "list_players"
	EventRollDice          = "roll_dice"
	EventUpdateStat        = "update_stat"
	EventUpdatePlayerField = "update_player_field"
	EventHostMessage       = "host_message"
	EventPlayerMessage     = "player_message"
	EventGetMessages       = "get_messages"
	EventIncrement         = "increment"

	// eventUndecodable labels drops of frames that carry no usable event name
	eventUndecodable = "undecodable"
)

// Dispatcher routes frames from persistent connections to the session
// router. Broadcasts go out through the hub; request/response events are
// answered on the sending connection only.
type Dispatcher struct {
	router *session.Router
	gate   *auth.Gate
	hub    *Hub
	logger *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(router *session.Router, gate *auth.Gate, hub *Hub, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		router: router,
		gate:   gate,
		hub:    hub,
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch handles one inbound frame
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, in Inbound) {
	switch in.Event {
	case EventCreatePlayer:
		d.createPlayer(ctx, c, in)
	case EventGetPlayer:
		d.getPlayer(ctx, c, in)
	case EventListPlayers:
		d.listPlayers(ctx, c, in)
	case EventGetMessages:
		d.getMessages(ctx, c, in)
	case EventRollDice:
		var req request.RollDiceRequest
		d.fireAndForget(c, in, &req, func() error {
			_, err := d.router.RollDice(ctx, session.RollRequest{
				PlayerID: req.PlayerID,
				Roll:     req.Roll,
				Sides:    req.Sides,
			})
			return err
		})
	case EventUpdateStat:
		var req request.UpdateStatRequest
		d.fireAndForget(c, in, &req, func() error {
			_, err := d.router.UpdateStat(ctx, req.PlayerID, req.Type, req.Value)
			return err
		})
	case EventUpdatePlayerField:
		var req request.UpdateFieldRequest
		d.fireAndForget(c, in, &req, func() error {
			_, err := d.router.UpdatePlayerFieldJSON(ctx, req.PlayerID, req.Field, req.Value)
			return err
		})
	case EventHostMessage:
		var req request.MessageRequest
		d.fireAndForget(c, in, &req, func() error {
			return d.requireHost(c, in, func() error {
				_, err := d.router.SendHostMessage(ctx, req.PlayerID, req.Content, req.Mode)
				return err
			})
		})
	case EventPlayerMessage:
		var req request.MessageRequest
		d.fireAndForget(c, in, &req, func() error {
			_, err := d.router.SendPlayerMessage(ctx, req.PlayerID, req.Content)
			return err
		})
	case EventIncrement:
		d.router.Heartbeat()
	default:
		d.router.Reject(in.Event, session.ErrUnknownEvent)
	}
}

// rejectFrame records a frame that is not JSON or names no event
func (d *Dispatcher) rejectFrame(err error) {
	d.router.Reject(eventUndecodable, errors.Join(session.ErrMalformedEvent, err))
}

// requireHost passes connections opened as host, and otherwise checks the
// credential carried on the frame
func (d *Dispatcher) requireHost(c *Client, in Inbound, fn func() error) error {
	if c.IsHost() {
		return fn()
	}
	return d.gate.RequireHost(in.Credential, fn)
}

// decode unmarshals the frame payload. An absent payload decodes as {}.
func decode(in Inbound, v any) error {
	if len(in.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		return errors.Join(session.ErrMalformedEvent, err)
	}
	return nil
}

// fireAndForget runs an event whose only visible result is a broadcast.
// Failures stay silent to the sender unless they are authorization
// failures.
func (d *Dispatcher) fireAndForget(c *Client, in Inbound, v any, fn func() error) {
	if err := decode(in, v); err != nil {
		d.router.Reject(in.Event, err)
		return
	}
	err := fn()
	if err == nil || session.IsSilentDrop(err) {
		return
	}
	d.router.Reject(in.Event, err)
	d.replyError(c, in.Event, err)
}

func (d *Dispatcher) createPlayer(ctx context.Context, c *Client, in Inbound) {
	var req request.CreatePlayerRequest
	if err := decode(in, &req); err != nil {
		d.router.Reject(in.Event, err)
		d.reply(c, model.EventCreateResult, CreatePlayerResult{
			Success: false,
			Error:   "Invalid request body",
			Code:    apierr.CodeInvalidRequest,
		})
		return
	}

	p, err := d.router.CreatePlayer(ctx, req.ToNewPlayer())
	if err != nil {
		code, message := apierr.Describe(err)
		d.reply(c, model.EventCreateResult, CreatePlayerResult{Success: false, Error: message, Code: code})
		return
	}
	d.reply(c, model.EventCreateResult, CreatePlayerResult{Success: true, PlayerID: p.ID})
}

func (d *Dispatcher) getPlayer(ctx context.Context, c *Client, in Inbound) {
	var req request.PlayerRef
	if err := decode(in, &req); err != nil {
		d.router.Reject(in.Event, err)
		d.replyError(c, in.Event, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}
	p, err := d.router.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		d.replyError(c, in.Event, err)
		return
	}
	d.reply(c, model.EventPlayerData, p)
}

func (d *Dispatcher) listPlayers(ctx context.Context, c *Client, in Inbound) {
	var players []*model.Player
	err := d.requireHost(c, in, func() error {
		p, err := d.router.ListPlayers(ctx)
		players = p
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			d.router.Reject(in.Event, err)
		}
		d.replyError(c, in.Event, err)
		return
	}
	if players == nil {
		players = []*model.Player{}
	}
	d.reply(c, model.EventPlayersList, players)
}

func (d *Dispatcher) getMessages(ctx context.Context, c *Client, in Inbound) {
	var req request.PlayerRef
	if err := decode(in, &req); err != nil {
		d.router.Reject(in.Event, err)
		d.replyError(c, in.Event, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}
	messages, err := d.router.ListMessages(ctx, req.PlayerID)
	if err != nil {
		d.replyError(c, in.Event, err)
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	d.reply(c, model.EventMessagesList, MessagesList{PlayerID: req.PlayerID, Messages: messages})
}

func (d *Dispatcher) reply(c *Client, t model.EventType, payload any) {
	d.hub.SendTo(c, model.Event{Type: t, Payload: payload})
}

func (d *Dispatcher) replyError(c *Client, event string, err error) {
	code, message := apierr.Describe(err)
	d.logger.Debug("replying with error",
		slog.String("client_id", c.id),
		slog.String("event", event),
		slog.String("code", code))
	d.reply(c, model.EventError, ErrorReply{Event: event, Error: message, Code: code})
}
