package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"chenil/internal/config"
	"chenil/internal/models"
	"chenil/internal/observability"
	"chenil/internal/repository"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Pusher delivers one encrypted payload to one subscription endpoint and
// reports the endpoint's HTTP status.
type Pusher interface {
	Send(ctx context.Context, sub *models.PushSubscription, payload []byte) (int, error)
}

// vapidPusher is the production Pusher, delivering through the Web Push
// protocol with VAPID authentication.
type vapidPusher struct {
	publicKey  string
	privateKey string
	subscriber string
}

func (p *vapidPusher) Send(ctx context.Context, sub *models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// PushPayload is the JSON document the admin service worker receives.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Dispatcher fans one mutation event out to every administrator push
// subscription.
type Dispatcher struct {
	subs   repository.SubscriptionRepository
	pusher Pusher
}

// NewDispatcher returns a Dispatcher using VAPID web push. Credentials are
// the caller's problem: bootstrap refuses to start with push enabled and
// keys missing, so the dispatcher never has to degrade silently.
func NewDispatcher(subs repository.SubscriptionRepository, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		subs: subs,
		pusher: &vapidPusher{
			publicKey:  cfg.VAPIDPublicKey,
			privateKey: cfg.VAPIDPrivateKey,
			subscriber: cfg.PushSubscriber,
		},
	}
}

// NewDispatcherWithPusher returns a Dispatcher delivering through the given
// Pusher. Tests use it to observe deliveries without real endpoints.
func NewDispatcherWithPusher(subs repository.SubscriptionRepository, pusher Pusher) *Dispatcher {
	return &Dispatcher{subs: subs, pusher: pusher}
}

// Deliver sends one payload per notifiable subscription, concurrently and
// independently. An endpoint answering 404 or 410 is permanently gone and
// its subscription is removed; every other failure only logs. Deliver
// returns once the fan-out settles.
func (d *Dispatcher) Deliver(ctx context.Context, event models.MutationEvent) {
	subs, err := d.subs.ListNotifiable(ctx)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "Push subscription listing failed", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(buildPayload(event))
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "Push payload marshal failed", "error", err)
		return
	}

	var wg sync.WaitGroup
	for i := range subs {
		sub := subs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					observability.GlobalLogger.Error("PANIC in push delivery", "subscription_id", sub.ID, "panic", r)
				}
			}()
			d.deliverOne(ctx, &sub, payload)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) deliverOne(ctx context.Context, sub *models.PushSubscription, payload []byte) {
	status, err := d.pusher.Send(ctx, sub, payload)
	if err != nil {
		observability.PushDeliveries.WithLabelValues("error").Inc()
		observability.GlobalLogger.ErrorContext(ctx, "Push delivery failed",
			"subscription_id", sub.ID, "error", err)
		return
	}

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		// The endpoint will never accept deliveries again.
		observability.PushDeliveries.WithLabelValues("gone").Inc()
		if err := d.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "Push subscription prune failed",
				"subscription_id", sub.ID, "error", err)
			return
		}
		observability.PushSubscriptionsPruned.Inc()
		observability.GlobalLogger.InfoContext(ctx, "Pruned gone push subscription",
			"subscription_id", sub.ID, "status", status)
	case status >= 200 && status < 300:
		observability.PushDeliveries.WithLabelValues("ok").Inc()
	default:
		observability.PushDeliveries.WithLabelValues("rejected").Inc()
		observability.GlobalLogger.WarnContext(ctx, "Push delivery rejected",
			"subscription_id", sub.ID, "status", status)
	}
}

// buildPayload renders the notification the admins see. Wording follows the
// admin UI's French.
func buildPayload(event models.MutationEvent) PushPayload {
	title := fmt.Sprintf("%s %s", entityLabel(event.EntityKind), operationLabel(event.Operation))

	body := event.Summary
	if event.Status == models.AuditStatusPending {
		body = "À valider : " + body
	} else {
		body = "Publié : " + body
	}

	return PushPayload{
		Title: title,
		Body:  body,
		URL:   event.AdminURL,
	}
}

func entityLabel(kind models.EntityKind) string {
	switch kind {
	case models.EntityDog:
		return "Chien"
	case models.EntityOwner:
		return "Maître"
	case models.EntityMedia:
		return "Photo"
	default:
		return "Fiche"
	}
}

func operationLabel(op models.Operation) string {
	switch op {
	case models.OperationCreate:
		return "ajouté"
	case models.OperationDelete:
		return "supprimé"
	default:
		return "modifié"
	}
}
