package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/logger"
	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/metrics"
)

// EnabledFunc reports whether email notifications are switched on. An error is logged
// and treated as enabled.
type EnabledFunc func(ctx context.Context) (bool, error)

// StatusChangeEvent is raised after a ticket moves between workstates.
type StatusChangeEvent struct {
	Ticket    models.Ticket
	ActorID   string
	OldStatus models.TicketStatus
	NewStatus models.TicketStatus
}

// AssigneeChangeEvent is raised after a ticket is reassigned. The new assignee is
// read from Ticket.
type AssigneeChangeEvent struct {
	Ticket             models.Ticket
	ActorID            string
	PreviousAssigneeID string
}

// CommentEvent is raised after a comment is added to a ticket.
type CommentEvent struct {
	Ticket  models.Ticket
	ActorID string
	Comment models.Comment
}

// DispatcherConfig wires the pipeline stages.
type DispatcherConfig struct {
	Sender      mail.Sender
	Users       UserDirectory
	Preferences PreferenceStore
	Audit       AuditRecorder
	Renderer    *Renderer
	Enabled     EnabledFunc
	// ExcludeActor keeps users from being emailed about their own changes.
	ExcludeActor bool
	Now          func() time.Time
}

// Dispatcher runs the notification pipeline: settings gate, resolve, filter,
// validate, render, send and audit. Each trigger makes at most one delivery
// attempt per email and never retries.
type Dispatcher struct {
	sender   mail.Sender
	users    UserDirectory
	resolver *Resolver
	filter   *PreferenceFilter
	audit    AuditRecorder
	renderer *Renderer
	enabled  EnabledFunc
	now      func() time.Time
	log      *zap.Logger
}

// NewDispatcher validates cfg and assembles the pipeline.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Sender == nil {
		return nil, errors.New("dispatcher: sender is required")
	}
	if cfg.Audit == nil {
		return nil, errors.New("dispatcher: audit recorder is required")
	}

	resolver, err := NewResolver(cfg.Users, cfg.ExcludeActor)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	filter, err := NewPreferenceFilter(cfg.Preferences)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer, err = NewRenderer(RendererOptions{Now: now})
		if err != nil {
			return nil, fmt.Errorf("dispatcher: %w", err)
		}
	}

	return &Dispatcher{
		sender:   cfg.Sender,
		users:    cfg.Users,
		resolver: resolver,
		filter:   filter,
		audit:    cfg.Audit,
		renderer: renderer,
		enabled:  cfg.Enabled,
		now:      now,
		log:      logger.WithModule("notifications"),
	}, nil
}

// NotifyStatusChange emails the assignee and requester about a status transition.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, event StatusChangeEvent) (result Result) {
	defer d.recoverInto(&result, models.KindStatusChange)
	ctx = ensureContext(ctx)

	if err := d.precheck(ctx, event.Ticket); err != nil {
		return d.finish(models.KindStatusChange, event.Ticket.ID, failure(err))
	}

	ticket := event.Ticket
	names := d.displayNames(ctx, event.ActorID)

	return d.finish(models.KindStatusChange, ticket.ID, d.deliver(ctx, attempt{
		kind:    models.KindStatusChange,
		ticket:  ticket,
		actorID: event.ActorID,
		resolve: ResolveInput{Ticket: &ticket, ActorID: event.ActorID},
		render: RenderInput{
			Kind:     models.KindStatusChange,
			Ticket:   ticket,
			Actor:    names[event.ActorID],
			OldValue: string(event.OldStatus),
			NewValue: string(event.NewStatus),
		},
		metadata: map[string]any{
			"old_status": string(event.OldStatus),
			"new_status": string(event.NewStatus),
		},
	}))
}

// NotifyAssigneeChange emails the new assignee, the previous assignee and the requester.
func (d *Dispatcher) NotifyAssigneeChange(ctx context.Context, event AssigneeChangeEvent) (result Result) {
	defer d.recoverInto(&result, models.KindAssigneeChange)
	ctx = ensureContext(ctx)

	if err := d.precheck(ctx, event.Ticket); err != nil {
		return d.finish(models.KindAssigneeChange, event.Ticket.ID, failure(err))
	}

	ticket := event.Ticket
	previous := strings.TrimSpace(event.PreviousAssigneeID)
	current := ticket.Assignee()
	names := d.displayNames(ctx, event.ActorID, previous, current)

	return d.finish(models.KindAssigneeChange, ticket.ID, d.deliver(ctx, attempt{
		kind:    models.KindAssigneeChange,
		ticket:  ticket,
		actorID: event.ActorID,
		resolve: ResolveInput{Ticket: &ticket, ActorID: event.ActorID, Extra: []string{previous}},
		render: RenderInput{
			Kind:     models.KindAssigneeChange,
			Ticket:   ticket,
			Actor:    names[event.ActorID],
			OldValue: nameOrUnassigned(names, previous),
			NewValue: nameOrUnassigned(names, current),
		},
		metadata: map[string]any{
			"old_assignee_id": previous,
			"new_assignee_id": current,
		},
	}))
}

// NotifyComment sends a mention email to every mentioned user and a comment email to
// the ticket participants the mention email was not addressed to. A participant who
// opted out of mentions still gets the comment email. The two sends are independent
// attempts; the result succeeds when every attempted send succeeded.
func (d *Dispatcher) NotifyComment(ctx context.Context, event CommentEvent) (result Result) {
	defer d.recoverInto(&result, models.KindComment)
	ctx = ensureContext(ctx)

	if err := d.precheck(ctx, event.Ticket); err != nil {
		return d.finish(models.KindComment, event.Ticket.ID, failure(err))
	}

	ticket := event.Ticket
	mentions := []string(event.Comment.Mentions)
	names := d.displayNames(ctx, event.ActorID)
	metadata := map[string]any{
		"comment_id": event.Comment.ID,
	}

	var (
		outcomes  []Result
		mentioned []string
	)
	if len(mentions) > 0 {
		mentionMeta := copyMetadata(metadata)
		mentionMeta["mentioned_user_ids"] = append([]string(nil), mentions...)
		var result Result
		result, mentioned = d.deliverTo(ctx, attempt{
			kind:    models.KindMention,
			ticket:  ticket,
			actorID: event.ActorID,
			resolve: ResolveInput{ActorID: event.ActorID, Extra: mentions},
			render: RenderInput{
				Kind:    models.KindMention,
				Ticket:  ticket,
				Actor:   names[event.ActorID],
				Comment: event.Comment.Content,
			},
			metadata: mentionMeta,
		})
		outcomes = append(outcomes, d.finish(models.KindMention, ticket.ID, result))
	}

	outcomes = append(outcomes, d.finish(models.KindComment, ticket.ID, d.deliver(ctx, attempt{
		kind:    models.KindComment,
		ticket:  ticket,
		actorID: event.ActorID,
		resolve: ResolveInput{Ticket: &ticket, ActorID: event.ActorID, Exclude: mentioned},
		render: RenderInput{
			Kind:    models.KindComment,
			Ticket:  ticket,
			Actor:   names[event.ActorID],
			Comment: event.Comment.Content,
		},
		metadata: metadata,
	})))

	return combine(outcomes)
}

type attempt struct {
	kind     models.NotificationKind
	ticket   models.Ticket
	actorID  string
	resolve  ResolveInput
	render   RenderInput
	metadata map[string]any
}

func (d *Dispatcher) precheck(ctx context.Context, ticket models.Ticket) error {
	if strings.TrimSpace(ticket.ID) == "" {
		return ErrInvalidEvent
	}
	if d.enabled == nil {
		return nil
	}
	enabled, err := d.enabled(ctx)
	if err != nil {
		d.log.Warn("notification settings unavailable, continuing", zap.Error(err))
		return nil
	}
	if !enabled {
		return ErrDisabled
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, a attempt) Result {
	result, _ := d.deliverTo(ctx, a)
	return result
}

// deliverTo runs one attempt and also returns the ids of the users the message
// was addressed to. The ids are returned once the send is attempted, even if it
// fails.
func (d *Dispatcher) deliverTo(ctx context.Context, a attempt) (Result, []string) {
	candidates, err := d.resolver.Resolve(ctx, a.resolve)
	if err != nil {
		return failure(err), nil
	}

	recipients := d.filter.Filter(ctx, candidates, a.kind)
	if len(recipients) == 0 {
		return failure(ErrNoRecipients), nil
	}

	ids := make([]string, 0, len(recipients))
	addresses := make([]string, 0, len(recipients))
	var addressed []string
	for _, user := range recipients {
		ids = append(ids, user.ID)
		addresses = append(addresses, user.Email)
		if mail.ValidAddress(user.Email) {
			addressed = append(addressed, user.ID)
		}
	}
	valid, rejected := mail.FilterAddresses(addresses)
	if len(valid) == 0 {
		return failure(ErrNoRecipients), nil
	}

	rendered, err := d.renderer.Render(a.render)
	if err != nil {
		return failure(err), nil
	}

	receipt, sendErr := d.sender.Send(ctx, mail.Message{
		To:      valid,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	})

	metadata := copyMetadata(a.metadata)
	metadata["transport"] = d.sender.Transport()
	metadata["success"] = sendErr == nil
	if len(rejected) > 0 {
		metadata["rejected_addresses"] = rejected
	}
	if sendErr != nil {
		metadata["error"] = sendErr.Error()
	} else if receipt.ID != "" {
		metadata["message_id"] = receipt.ID
	}

	sentAt := receipt.SentAt
	if sentAt.IsZero() {
		sentAt = d.now().UTC()
	}
	d.audit.Record(ctx, Entry{
		Kind:         a.kind,
		TicketID:     a.ticket.ID,
		RecipientIDs: ids,
		SenderID:     a.actorID,
		Metadata:     metadata,
		SentAt:       sentAt,
	})

	if sendErr != nil {
		return failure(sendErr), addressed
	}
	return Result{
		Success: true,
		Data: []Delivery{{
			Kind:         a.kind,
			TicketID:     a.ticket.ID,
			RecipientIDs: ids,
			Receipt:      receipt,
		}},
	}, addressed
}

func (d *Dispatcher) finish(kind models.NotificationKind, ticketID string, result Result) Result {
	outcome := "sent"
	switch {
	case result.Success:
	case result.Skipped():
		outcome = "skipped"
	default:
		outcome = "failed"
	}
	metrics.Notifications.WithLabelValues(string(kind), outcome).Inc()

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("ticket_id", ticketID),
		zap.String("outcome", outcome),
	}
	if result.Error != nil {
		fields = append(fields, zap.Error(result.Error))
	}
	if outcome == "failed" {
		d.log.Warn("notification delivery failed", fields...)
	} else {
		d.log.Debug("notification processed", fields...)
	}
	return result
}

func (d *Dispatcher) recoverInto(result *Result, kind models.NotificationKind) {
	if rec := recover(); rec != nil {
		d.log.Error("notification pipeline panic", zap.String("kind", string(kind)), zap.Any("panic", rec))
		metrics.Notifications.WithLabelValues(string(kind), "failed").Inc()
		*result = failure(fmt.Errorf("notifications: pipeline panic: %v", rec))
	}
}

// displayNames resolves ids to display names for template use. Lookup failures
// leave the names empty; the renderer substitutes placeholders.
func (d *Dispatcher) displayNames(ctx context.Context, ids ...string) map[string]string {
	names := make(map[string]string, len(ids))
	var lookup []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			lookup = append(lookup, id)
		}
	}
	if len(lookup) == 0 {
		return names
	}

	users, err := d.users.UsersByIDs(ctx, lookup)
	if err != nil {
		d.log.Debug("display name lookup failed", zap.Error(err))
		return names
	}
	for _, user := range users {
		names[user.ID] = user.DisplayName()
	}
	return names
}

func nameOrUnassigned(names map[string]string, id string) string {
	if id == "" {
		return "Unassigned"
	}
	if name := names[id]; name != "" {
		return name
	}
	return id
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+4)
	for key, value := range in {
		out[key] = value
	}
	return out
}

// combine merges independent attempts. Skipped attempts do not count as failures
// unless nothing at all was attempted.
func combine(results []Result) Result {
	var (
		data      []Delivery
		errs      error
		attempted int
	)
	for _, result := range results {
		if !result.Success && result.Skipped() {
			continue
		}
		attempted++
		data = append(data, result.Data...)
		if !result.Success {
			errs = multierr.Append(errs, result.Error)
		}
	}

	if attempted == 0 {
		for _, result := range results {
			if errors.Is(result.Error, ErrDisabled) {
				return failure(ErrDisabled)
			}
		}
		return failure(ErrNoRecipients)
	}
	return Result{Success: errs == nil, Data: data, Error: errs}
}
