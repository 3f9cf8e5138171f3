// Package events turns inbound transport frames into registry, call flow,
// messaging and presence actions, and fans the results back out. Every frame
// is handled as one atomic unit of work; errors become structured error
// frames to the originating connection and never kill the process or the
// connection.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/callflow"
	"github.com/GB163/student-led-initiative-sub002/internal/identity"
	"github.com/GB163/student-led-initiative-sub002/internal/messaging"
	"github.com/GB163/student-led-initiative-sub002/internal/metrics"
	"github.com/GB163/student-led-initiative-sub002/internal/presence"
	"github.com/GB163/student-led-initiative-sub002/internal/registry"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

const eventTimeout = 10 * time.Second

// Error codes carried by outbound error frames
const (
	CodeValidation         = "validation_error"
	CodeCallUnavailable    = "call_unavailable"
	CodePersistenceFailure = "persistence_failure"
)

// Dispatcher is the fan-out surface the processor needs from the hub
type Dispatcher interface {
	ToConnection(connID string, event any) bool
	ToStaff(event any) (delivered, total int)
	ToAll(event any) int
	DropConnection(connID string)
}

// Processor handles all inbound transport events
type Processor struct {
	registry  *registry.Registry
	calls     *callflow.Service
	messages  *messaging.Service
	presence  *presence.Updater
	validator identity.Validator
	hub       Dispatcher
	logger    zerolog.Logger
}

// NewProcessor creates a Processor
func NewProcessor(
	reg *registry.Registry,
	calls *callflow.Service,
	messages *messaging.Service,
	pres *presence.Updater,
	validator identity.Validator,
	hub Dispatcher,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		registry:  reg,
		calls:     calls,
		messages:  messages,
		presence:  pres,
		validator: validator,
		hub:       hub,
		logger:    logger.With().Str("component", "events").Logger(),
	}
}

// HandleConnect stores a fresh anonymous registry entry for the connection
func (p *Processor) HandleConnect(connID string) {
	p.registry.OnConnect(connID)
}

// HandleDisconnect removes the connection from the registry and runs the
// compensating presence side effect for staff
func (p *Processor) HandleDisconnect(connID string) {
	entry := p.registry.Unregister(connID)
	if entry == nil {
		return
	}
	if entry.Kind.IsStaffLike() && entry.Identity != "" {
		p.presence.SetStatus(entry.Identity, types.StatusOffline)
		p.presence.Forget(entry.Identity)
	}
}

// HandleEvent decodes one inbound frame and runs it to completion
func (p *Processor) HandleEvent(connID string, message []byte) {
	metrics.Get().RecordEvent()

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &head); err != nil {
		p.logger.Debug().Err(err).Str("connection_id", connID).Msg("failed to parse frame type")
		p.sendError(connID, CodeValidation, "malformed frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch head.Type {
	case "register_user":
		p.handleRegisterUser(connID, message)
	case "register_role":
		p.handleRegisterRole(connID, message)
	case "register_staff":
		p.handleRegisterStaffLegacy(connID, message)
	case "user_message":
		p.handleUserMessage(ctx, connID, message)
	case "staff_message":
		p.handleStaffMessage(ctx, connID, message)
	case "call_request":
		p.handleCallSubmit(ctx, connID, message)
	case "accept_call":
		p.handleCallAccept(ctx, connID, message)
	case "start_call":
		p.handleCallStart(ctx, connID, message)
	case "end_call":
		p.handleCallEnd(ctx, connID, message)
	case "reject_call":
		p.handleCallReject(ctx, connID, message)
	case "call_feedback":
		p.handleCallFeedback(ctx, connID, message)
	case "delete_call":
		p.handleCallDelete(ctx, connID, message)
	case "heartbeat":
		p.handleHeartbeat(connID, message)
	default:
		p.logger.Debug().Str("type", head.Type).Str("connection_id", connID).Msg("unknown frame type")
	}
}

func (p *Processor) handleRegisterUser(connID string, message []byte) {
	var frame types.RegisterUser
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed register_user frame")
		return
	}

	totalUsers := p.registry.RegisterUser(connID, frame.DisplayName, frame.Device)

	p.hub.ToConnection(connID, types.UserRegistered{
		Type:         "registered",
		ConnectionID: connID,
		TotalUsers:   totalUsers,
	})
}

func (p *Processor) handleRegisterRole(connID string, message []byte) {
	var frame types.RegisterRole
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed register_role frame")
		return
	}

	role, err := NormalizeRole(frame.Role)
	if err != nil || !types.ValidRole(role) {
		p.sendError(connID, CodeValidation, "role must be one of user, staff, admin")
		return
	}
	kind := types.ConnectionKind(role)

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil {
		p.sendError(connID, CodeValidation, "unrecognized identity shape")
		return
	}

	if kind.IsStaffLike() {
		if ident == "" {
			p.sendError(connID, CodeValidation, "identity is required for staff and admin roles")
			return
		}
		if !p.validator.Valid(ident) {
			p.sendError(connID, CodeValidation, "identity is not a well-formed entity id")
			return
		}
	}

	evicted := p.registry.RegisterRole(connID, kind, ident, frame.Device)
	if evicted != "" {
		p.hub.DropConnection(evicted)
	}

	ack := types.RoleRegistered{Type: "role_registered", Success: true, Role: role}
	counts := p.registry.Counts()
	if kind.IsStaffLike() {
		ack.TotalStaff = counts.Staff
		p.presence.SetStatus(ident, types.StatusAvailable)
	} else {
		ack.TotalUsers = counts.Users
	}

	p.hub.ToConnection(connID, ack)
}

// handleRegisterStaffLegacy is the narrower registration path older staff
// clients still use
func (p *Processor) handleRegisterStaffLegacy(connID string, message []byte) {
	var frame types.RegisterStaffLegacy
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed register_staff frame")
		return
	}

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil || ident == "" {
		p.sendError(connID, CodeValidation, "identity is required")
		return
	}
	if !p.validator.Valid(ident) {
		p.sendError(connID, CodeValidation, "identity is not a well-formed entity id")
		return
	}

	evicted := p.registry.RegisterRole(connID, types.KindStaff, ident, "")
	if evicted != "" {
		p.hub.DropConnection(evicted)
	}

	p.presence.SetStatus(ident, types.StatusAvailable)

	p.hub.ToConnection(connID, types.StaffRegistered{
		Type:       "staff_registered",
		Identity:   ident,
		TotalStaff: p.registry.Counts().Staff,
	})
}

func (p *Processor) handleUserMessage(ctx context.Context, connID string, message []byte) {
	var frame types.UserMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed user_message frame")
		return
	}

	sender := p.registry.Lookup(connID)
	msg, err := p.messages.PostUserMessage(ctx, sender, frame.Text, frame.DisplayName)
	if err != nil {
		if errors.Is(err, messaging.ErrUnregisteredSender) {
			// Messages from unregistered connections are dropped unpersisted.
			p.logger.Debug().Str("connection_id", connID).Msg("dropping message from unregistered connection")
			return
		}
		p.sendError(connID, CodePersistenceFailure, "message could not be stored")
		return
	}

	delivered, total := p.hub.ToStaff(types.NewMessage{Type: "new_message", Message: *msg})

	p.hub.ToConnection(connID, types.MessageAck{
		Type:      "message_ack",
		Delivered: delivered,
		Total:     total,
	})
}

func (p *Processor) handleStaffMessage(ctx context.Context, connID string, message []byte) {
	var frame types.StaffMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed staff_message frame")
		return
	}
	if frame.TargetConnectionID == "" {
		p.sendError(connID, CodeValidation, "targetConnectionId is required")
		return
	}

	msg, err := p.messages.PostStaffMessage(ctx, frame.TargetConnectionID, frame.Text, frame.StaffName)
	if err != nil {
		p.sendError(connID, CodePersistenceFailure, "message could not be stored")
		return
	}

	// Best-effort to the target user; stored regardless of delivery.
	deliveredToUser := p.hub.ToConnection(frame.TargetConnectionID, types.DirectMessage{
		Type:    "direct_message",
		Message: *msg,
	})

	// The rest of the staff pool sees the reply too.
	p.hub.ToStaff(types.NewMessage{Type: "new_message", Message: *msg})

	delivered := 0
	if deliveredToUser {
		delivered = 1
	}
	p.hub.ToConnection(connID, types.MessageAck{Type: "message_ack", Delivered: delivered, Total: 1})
}

func (p *Processor) handleCallSubmit(ctx context.Context, connID string, message []byte) {
	var frame types.CallSubmit
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed call_request frame")
		return
	}

	call, err := p.calls.Submit(ctx, callflow.SubmitDetails{
		Name:               frame.Name,
		Phone:              frame.Phone,
		Language:           frame.Language,
		BestTime:           frame.BestTime,
		Notes:              frame.Notes,
		OriginConnectionID: connID,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("connection_id", connID).Msg("call request persistence failed")
		p.sendError(connID, CodePersistenceFailure, "call request could not be stored")
		return
	}
	metrics.Get().RecordCallSubmitted()

	sent, total := p.hub.ToStaff(types.NewCallRequest{Type: "new_call_request", Call: *call})
	p.logger.Info().
		Str("call_id", call.ID).
		Int("sent", sent).
		Int("total_staff", total).
		Msg("call request broadcast to staff")

	p.hub.ToConnection(connID, types.CallAck{Type: "call_ack", Call: *call, Sent: sent, Total: total})
}

func (p *Processor) handleCallAccept(ctx context.Context, connID string, message []byte) {
	var frame types.CallAccept
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed accept_call frame")
		return
	}

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil {
		p.sendError(connID, CodeValidation, "unrecognized identity shape")
		return
	}

	call, err := p.calls.Accept(ctx, frame.CallID, ident, frame.StaffName)
	if err != nil {
		var verr *callflow.ValidationError
		switch {
		case errors.As(err, &verr):
			p.sendError(connID, CodeValidation, verr.Error())
		case errors.Is(err, callflow.ErrCallUnavailable):
			p.sendError(connID, CodeCallUnavailable, "call was already taken or removed")
		default:
			p.logger.Error().Err(err).Str("call_id", frame.CallID).Msg("call accept failed")
			p.sendError(connID, CodePersistenceFailure, "call could not be updated")
		}
		return
	}

	p.hub.ToStaff(types.CallUpdated{Type: "call_updated", Call: *call})
}

func (p *Processor) handleCallStart(ctx context.Context, connID string, message []byte) {
	var frame types.CallStart
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed start_call frame")
		return
	}

	call, err := p.calls.Start(ctx, frame.CallID)
	if err != nil {
		p.dropOrReport(connID, frame.CallID, "start_call", err)
		return
	}

	p.hub.ToStaff(types.CallUpdated{Type: "call_updated", Call: *call})
}

func (p *Processor) handleCallEnd(ctx context.Context, connID string, message []byte) {
	var frame types.CallEnd
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed end_call frame")
		return
	}

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil {
		p.sendError(connID, CodeValidation, "unrecognized identity shape")
		return
	}

	call, err := p.calls.End(ctx, frame.CallID, ident)
	if err != nil {
		p.dropOrReport(connID, frame.CallID, "end_call", err)
		return
	}

	p.hub.ToStaff(types.CallUpdated{Type: "call_updated", Call: *call})
}

func (p *Processor) handleCallReject(ctx context.Context, connID string, message []byte) {
	var frame types.CallReject
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed reject_call frame")
		return
	}

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil {
		p.sendError(connID, CodeValidation, "unrecognized identity shape")
		return
	}

	call, err := p.calls.Release(ctx, frame.CallID, ident)
	if err != nil {
		p.dropOrReport(connID, frame.CallID, "reject_call", err)
		return
	}

	p.hub.ToStaff(types.CallUpdated{Type: "call_updated", Call: *call})
}

func (p *Processor) handleCallFeedback(ctx context.Context, connID string, message []byte) {
	var frame types.CallFeedback
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed call_feedback frame")
		return
	}

	call, err := p.calls.SubmitFeedback(ctx, frame.CallID, frame.Rating, frame.Suggestion)
	if err != nil {
		p.dropOrReport(connID, frame.CallID, "call_feedback", err)
		return
	}
	metrics.Get().RecordCallCompleted()

	p.hub.ToStaff(types.CallUpdated{Type: "call_updated", Call: *call})
}

func (p *Processor) handleCallDelete(ctx context.Context, connID string, message []byte) {
	var frame types.CallDelete
	if err := json.Unmarshal(message, &frame); err != nil {
		p.sendError(connID, CodeValidation, "malformed delete_call frame")
		return
	}

	if err := p.calls.Remove(ctx, frame.CallID); err != nil {
		p.dropOrReport(connID, frame.CallID, "delete_call", err)
		return
	}

	p.hub.ToAll(types.CallDeleted{Type: "call_deleted", CallID: frame.CallID})
}

func (p *Processor) handleHeartbeat(connID string, message []byte) {
	var frame types.Heartbeat
	if err := json.Unmarshal(message, &frame); err != nil {
		p.logger.Debug().Err(err).Str("connection_id", connID).Msg("malformed heartbeat frame")
		return
	}

	ident, err := NormalizeIdentity(frame.Identity)
	if err != nil || ident == "" {
		p.logger.Debug().Str("connection_id", connID).Msg("heartbeat without usable identity")
		return
	}

	// Invalid identities are logged inside the updater, never surfaced; a
	// bad heartbeat must not abort the connection.
	p.presence.Heartbeat(ident)
}

// dropOrReport applies the error policy for non-accept call actions: unknown
// ids are logged and silently dropped, anything else is reported back.
func (p *Processor) dropOrReport(connID, callID, action string, err error) {
	if errors.Is(err, callflow.ErrNotFound) {
		p.logger.Warn().
			Str("call_id", callID).
			Str("action", action).
			Msg("call action on unknown id, ignoring")
		return
	}
	p.logger.Error().Err(err).Str("call_id", callID).Str("action", action).Msg("call action failed")
	p.sendError(connID, CodePersistenceFailure, "call could not be updated")
}

func (p *Processor) sendError(connID, code, message string) {
	metrics.Get().RecordEventError()
	p.hub.ToConnection(connID, types.ErrorFrame{Type: "error", Code: code, Message: message})
}
