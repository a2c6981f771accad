package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/newscloud/classifieds-service/internal/config"
	contentdomain "github.com/newscloud/classifieds-service/internal/content/domain"
	"github.com/newscloud/classifieds-service/internal/listing/domain"
)

const (
	ListingCreatedSubject    = "listing.created"
	ListingPublishedSubject  = "listing.published"
	ListingRenewedSubject    = "listing.renewed"
	ExpireBookkeepingSubject = "listing.expire_bookkeeping"
	ContentCreatedSubject    = "content.created"
)

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type expireBookkeepingPayload struct {
	ListingID string `json:"listing_id"`
	OwnerID   string `json:"owner_id"`
	State     string `json:"state"`
	Event     string `json:"event"`
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS error", zap.String("subject", sub.Subject), zap.Error(err))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) publish(subject, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal NATS payload",
			zap.String("subject", subject),
			zap.String("id", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", subject),
			zap.String("id", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Info("Published NATS message",
		zap.String("subject", subject),
		zap.String("id", id),
	)
	return nil
}

func (p *Publisher) PublishListingCreated(ctx context.Context, listing *domain.Listing) error {
	return p.publish(ListingCreatedSubject, listing.ID, listing)
}

func (p *Publisher) PublishListingPublished(ctx context.Context, listing *domain.Listing) error {
	return p.publish(ListingPublishedSubject, listing.ID, listing)
}

func (p *Publisher) PublishListingRenewed(ctx context.Context, listing *domain.Listing) error {
	return p.publish(ListingRenewedSubject, listing.ID, listing)
}

func (p *Publisher) PublishExpireBookkeeping(ctx context.Context, listing *domain.Listing, event domain.Event) error {
	payload := expireBookkeepingPayload{
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		State:     string(listing.State),
		Event:     string(event),
	}
	return p.publish(ExpireBookkeepingSubject, listing.ID, payload)
}

func (p *Publisher) PublishContentCreated(ctx context.Context, content *contentdomain.Content) error {
	return p.publish(ContentCreatedSubject, content.ID, content)
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
