package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"roomchat/internal/ratelimit"
	"roomchat/internal/room"
	"roomchat/pkg/interfaces"
	"roomchat/pkg/types"
)

// rollPrefix marks a dice command; the remainder of the body goes to the
// dice evaluator.
const rollPrefix = "/roll"

// Pipeline runs an inbound send request through its validation chain and,
// when everything passes, persists then broadcasts the message. Terminal
// at the first failing step.
//
// Ordering invariant: a user message is only ever broadcast after the
// store confirms the write, so history and live view never diverge.
type Pipeline struct {
	rooms     *room.Registry
	limiter   *ratelimit.Limiter
	store     interfaces.MessageStore
	dice      interfaces.DiceEvaluator
	sanitizer *bluemonday.Policy
	maxBody   int
}

// New creates a message pipeline. maxBody is the post-sanitization length
// cap in runes.
func New(rooms *room.Registry, limiter *ratelimit.Limiter, store interfaces.MessageStore, dice interfaces.DiceEvaluator, maxBody int) *Pipeline {
	return &Pipeline{
		rooms:   rooms,
		limiter: limiter,
		store:   store,
		dice:    dice,
		// Strict policy: the body is plain text, no tags or attributes
		// survive regardless of whether it is a dice command.
		sanitizer: bluemonday.StrictPolicy(),
		maxBody:   maxBody,
	}
}

// RetryAfter returns the rate-limit window, surfaced as the retry hint on
// RATE_LIMITED errors.
func (p *Pipeline) RetryAfter() time.Duration {
	return p.limiter.Window()
}

// Process runs the send-message state machine for a message from sess.
func (p *Pipeline) Process(ctx context.Context, sess types.Session, payload types.SendMessagePayload) error {
	// 1. Shape validation.
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// 2. Room membership: the sender's current room must be the target.
	if !sess.InRoom(payload.RoomCode) {
		return ErrInvalidRoom
	}

	// 3. Rate check.
	if p.limiter.IsThrottled(sess.UserID) {
		return ErrRateLimited
	}

	// 4. Normalization.
	body := strings.TrimSpace(payload.Message)
	if body == "" {
		return ErrEmptyMessage
	}

	// 5. Sanitization. The policy entity-escapes what it keeps, so
	// unescape to get plain text back, then re-trim what stripping left.
	body = strings.TrimSpace(html.UnescapeString(p.sanitizer.Sanitize(body)))
	if body == "" {
		return ErrEmptyMessage
	}

	// 6. Length check.
	if utf8.RuneCountInString(body) > p.maxBody {
		return ErrMessageTooLong
	}

	// 7. Command dispatch.
	if isRollCommand(body) {
		return p.processRoll(sess, body)
	}

	// 8. Persistence. Collaborator failures must not leak detail to the
	// client; the gateway maps ErrServer to a generic notice.
	stored, err := p.store.Save(ctx, payload.RoomCode, sess.UserID, sess.DisplayName, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	// 9. Broadcast the stored representation. Membership is re-read here,
	// after the persistence suspension point, never cached across it.
	p.rooms.Broadcast(stored.RoomCode, types.EventReceiveMessage, stored)
	return nil
}

// processRoll evaluates a dice command and broadcasts a system-authored
// result message. Dice results are ephemeral: they are never persisted as
// user chat messages. Malformed syntax is rejected to the author only.
func (p *Pipeline) processRoll(sess types.Session, body string) error {
	command := strings.TrimSpace(strings.TrimPrefix(body, rollPrefix))
	result, err := p.dice.Evaluate(command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	msg := &types.ChatMessage{
		ID:         uuid.New().String(),
		RoomCode:   sess.CurrentRoom,
		AuthorID:   types.SystemUserID,
		AuthorName: types.SystemUserID,
		Body:       fmt.Sprintf("%s의 주사위 결과: %d (%s)", sess.DisplayName, result.Total, result.Detail),
		CreatedAt:  time.Now().UTC(),
	}
	p.rooms.Broadcast(msg.RoomCode, types.EventReceiveMessage, msg)
	return nil
}

// Logs serves a history request for a room the sender is currently in.
func (p *Pipeline) Logs(ctx context.Context, sess types.Session, payload types.GetChatLogsPayload) ([]*types.ChatMessage, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !sess.InRoom(payload.RoomCode) {
		return nil, ErrInvalidRoom
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = 50
	}

	messages, err := p.store.FetchRecent(ctx, payload.RoomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServer, err)
	}
	if messages == nil {
		messages = []*types.ChatMessage{}
	}
	return messages, nil
}

func isRollCommand(body string) bool {
	if !strings.HasPrefix(body, rollPrefix) {
		return false
	}
	rest := body[len(rollPrefix):]
	return rest == "" || strings.HasPrefix(rest, " ")
}
