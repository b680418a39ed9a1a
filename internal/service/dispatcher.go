// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/repository"
	"github.com/centrocomm/messaging-backend/internal/search"
	"github.com/centrocomm/messaging-backend/internal/sender"
	"github.com/centrocomm/messaging-backend/internal/template"
)

// BatchLimits caps how many events one sweep pulls per kind. Transactional
// gets the largest batch since it sits first in the priority order.
type BatchLimits struct {
	Transactional int
	Interactive   int
	Scheduled     int
}

func (l BatchLimits) For(kind model.EventKind) int {
	switch kind {
	case model.EventKindTransactional:
		return l.Transactional
	case model.EventKindInteractive:
		return l.Interactive
	case model.EventKindScheduled:
		return l.Scheduled
	}
	return 0
}

// Dispatcher polls the event store and drives channel senders. Several
// dispatcher processes may run against the same store; the conditional claim
// update is the only admission gate.
type Dispatcher struct {
	Events    repository.MessageEventRepositoryInterface
	Campaigns repository.CampaignRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Customers repository.CustomerRepositoryInterface
	Orgs      repository.OrgRepositoryInterface
	Senders   *sender.Registry
	Limits    BatchLimits
	Log       *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

func NewDispatcher(
	events repository.MessageEventRepositoryInterface,
	campaigns repository.CampaignRepositoryInterface,
	templates repository.TemplateRepositoryInterface,
	customers repository.CustomerRepositoryInterface,
	orgs repository.OrgRepositoryInterface,
	senders *sender.Registry,
	limits BatchLimits,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		Events:    events,
		Campaigns: campaigns,
		Templates: templates,
		Customers: customers,
		Orgs:      orgs,
		Senders:   senders,
		Limits:    limits,
		Log:       log,
		now:       time.Now,
	}
}

// WarnStale logs how many events are stuck in processing since before the
// cutoff. Nothing reclaims them; a crashed dispatcher leaves them behind and
// an operator has to reset them by hand.
func (d *Dispatcher) WarnStale(olderThan time.Duration) {
	cutoff := d.now().Add(-olderThan)
	n, err := d.Events.CountStale(cutoff)
	if err != nil {
		d.Log.Warn("stale event count failed", zap.Error(err))
		return
	}
	if n > 0 {
		d.Log.Warn("events stuck in processing, manual reset required",
			zap.Int("count", n), zap.Time("older_than", cutoff))
	}
}

// Sweep runs one dispatch pass: for each kind in priority order, poll due
// pending events, claim each one, process it and record the outcome. Poll
// and claim errors are logged and skipped so one bad event cannot stall the
// rest of the sweep.
func (d *Dispatcher) Sweep(ctx context.Context) {
	for _, kind := range model.EventKindsByPriority {
		events, err := d.Events.FindPending(kind, d.now(), d.Limits.For(kind))
		if err != nil {
			d.Log.Error("poll failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, ev := range events {
			if ctx.Err() != nil {
				return
			}
			d.dispatch(ctx, ev)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev *model.MessageEvent) {
	claimed, err := d.Events.Claim(ev.ID, d.now())
	if err != nil {
		d.Log.Error("claim failed", zap.Int("event_id", ev.ID), zap.Error(err))
		return
	}
	if !claimed {
		// another worker won the conditional update
		return
	}

	procErr := d.process(ctx, ev)

	end := d.now()
	ev.ProcessEndDt = &end
	if procErr != nil {
		ev.Status = model.EventStatusFailed
		ev.StatusMessage = procErr.Error()
		d.Log.Warn("event failed",
			zap.Int("event_id", ev.ID), zap.String("kind", string(ev.Kind)), zap.Error(procErr))
	} else {
		ev.Status = model.EventStatusProcessed
		ev.StatusMessage = ""
	}

	// bookkeeping is best effort, never mask the processing outcome
	if err := d.Events.Finish(ev); err != nil {
		d.Log.Error("event status persist failed", zap.Int("event_id", ev.ID), zap.Error(err))
	}
}

func (d *Dispatcher) process(ctx context.Context, ev *model.MessageEvent) error {
	switch ev.Kind {
	case model.EventKindTransactional:
		return d.processTransactional(ctx, ev)
	case model.EventKindInteractive:
		return d.processInteractive(ctx, ev)
	case model.EventKindScheduled:
		return d.processScheduled(ctx, ev)
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

// processTransactional sends the single fully specified message carried in
// the payload.
func (d *Dispatcher) processTransactional(ctx context.Context, ev *model.MessageEvent) error {
	payload, err := ev.TransactionalPayload()
	if err != nil {
		return err
	}
	snd, err := d.Senders.ForChannel(payload.Channel)
	if err != nil {
		return err
	}

	msg := &model.Message{
		MessageEventID: &ev.ID,
		Channel:        payload.Channel,
		From:           payload.From,
		To:             payload.To,
		Cc:             payload.Cc,
		Bcc:            payload.Bcc,
		Subject:        payload.Subject,
		Body:           payload.Body,
		Text:           payload.Text,
	}
	return snd.SendMessage(ctx, msg)
}

// processInteractive renders the template once per referenced customer and
// sends on the event channel, or each customer's preferred channel when the
// event leaves it open.
func (d *Dispatcher) processInteractive(ctx context.Context, ev *model.MessageEvent) error {
	payload, err := ev.InteractivePayload()
	if err != nil {
		return err
	}
	tmpl, err := d.Templates.GetByID(payload.TemplateID)
	if err != nil {
		return err
	}
	customers, err := d.Customers.GetByIDs(payload.CustomerIDs)
	if err != nil {
		return err
	}

	var failed int
	for i := range customers {
		customer := &customers[i]
		channel := payload.Channel
		if channel == "" {
			channel = customer.PreferredChannel()
		}
		if err := d.sendToCustomer(ctx, ev, tmpl, customer, channel, payload.ManualOverride); err != nil {
			failed++
			d.Log.Warn("interactive send failed",
				zap.Int("event_id", ev.ID), zap.Int("customer_id", customer.ID), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(customers))
	}
	return nil
}

// processScheduled resolves the recipient set from the campaign's persisted
// filter query and sends per customer preference. Zero matches is a normal
// completed outcome.
func (d *Dispatcher) processScheduled(ctx context.Context, ev *model.MessageEvent) error {
	payload, err := ev.ScheduledPayload()
	if err != nil {
		return err
	}
	campaign, err := d.Campaigns.GetByID(payload.CampaignID)
	if err != nil {
		return err
	}
	tmpl, err := d.Templates.GetByID(campaign.TemplateID)
	if err != nil {
		return err
	}
	cond, err := search.ParseCondition(campaign.FilterQuery)
	if err != nil {
		return fmt.Errorf("campaign %d filter query: %w", campaign.ID, err)
	}
	customers, err := d.Customers.FindByCondition(cond)
	if err != nil {
		return err
	}

	var failed int
	for i := range customers {
		customer := &customers[i]
		if err := d.sendToCustomer(ctx, ev, tmpl, customer, customer.PreferredChannel(), nil); err != nil {
			failed++
			d.Log.Warn("scheduled send failed",
				zap.Int("event_id", ev.ID), zap.Int("campaign_id", campaign.ID),
				zap.Int("customer_id", customer.ID), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("campaign %d: %d of %d messages failed", campaign.ID, failed, len(customers))
	}
	return nil
}

// sendToCustomer renders the channel's template text for one customer and
// hands the message to the matching sender. A manual override redirects the
// destination while keeping the original one for audit.
func (d *Dispatcher) sendToCustomer(
	ctx context.Context,
	ev *model.MessageEvent,
	tmpl *model.MessageTemplate,
	customer *model.Customer,
	channel model.Channel,
	override *model.ManualOverride,
) error {
	if !tmpl.HasChannel(channel) {
		return fmt.Errorf("template %d has no %s content", tmpl.ID, channel)
	}
	snd, err := d.Senders.ForChannel(channel)
	if err != nil {
		return err
	}

	msg := &model.Message{
		MessageEventID: &ev.ID,
		Channel:        channel,
		To:             customer.Destination(channel),
		From:           d.orgDefaultSender(customer, channel),
	}
	if msg.From != "" {
		msg.UsedDefaultSender = true
	}
	if to := override.For(channel); to != "" {
		msg.OverrideActive = true
		msg.OverriddenTo = msg.To
		msg.To = to
	}

	record := customer.Record()
	switch channel {
	case model.ChannelEmail:
		subject, err := template.Compile(tmpl.EmailSubject, record, nil)
		if err != nil {
			return err
		}
		body, err := template.Compile(tmpl.EmailBody, record, nil)
		if err != nil {
			return err
		}
		msg.Subject = subject.CompiledText
		msg.Body = body.CompiledText
	case model.ChannelSms:
		text, err := template.Compile(tmpl.SmsText, record, nil)
		if err != nil {
			return err
		}
		msg.Text = text.CompiledText
	case model.ChannelWhatsApp:
		text, err := template.Compile(tmpl.WhatsAppText, record, nil)
		if err != nil {
			return err
		}
		msg.Text = text.CompiledText
	}

	return snd.SendMessage(ctx, msg)
}

// orgDefaultSender looks up the customer's member org default from address
// for the channel. Lookup failures degrade to the config-level default that
// the sender itself applies.
func (d *Dispatcher) orgDefaultSender(customer *model.Customer, channel model.Channel) string {
	if customer.MemberOrgID == nil {
		return ""
	}
	org, err := d.Orgs.GetMemberOrg(*customer.MemberOrgID)
	if err != nil {
		d.Log.Warn("member org lookup failed",
			zap.Int("member_org_id", *customer.MemberOrgID), zap.Error(err))
		return ""
	}
	if org == nil {
		return ""
	}
	return org.DefaultSender(channel)
}
