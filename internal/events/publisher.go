// Package events publishes world-state change notifications onto Redis
// pub/sub channels so that an out-of-scope edge layer (the websocket
// pusher) can fan them out to connected clients without the simulation
// engines knowing anything about live connections.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/config"
)

// Topic names the channel an event is published on, scoped per village so
// a subscriber only pays for the villages it cares about.
type Topic string

const (
	TopicVillage Topic = "village"
	TopicArmy    Topic = "army"
)

// Event is the envelope written to every channel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Publisher wraps a Redis client, publishing best-effort — a delivery
// failure here never rolls back the transaction that produced the event.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(cfg config.RedisConfig, logger *zap.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Publisher{client: redis.NewClient(opts), logger: logger}, nil
}

func channelName(topic Topic, villageID string) string {
	return fmt.Sprintf("%s:%s", topic, villageID)
}

// Publish encodes event as JSON and fires it at the village's channel,
// logging and swallowing any transport error.
func (p *Publisher) Publish(ctx context.Context, topic Topic, villageID string, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.Error(err), zap.String("type", event.Type))
		return
	}
	if err := p.client.Publish(ctx, channelName(topic, villageID), body).Err(); err != nil {
		p.logger.Warn("publish event failed", zap.Error(err), zap.String("type", event.Type))
	}
}

// VillageUpdated announces that a village's resources, buildings or
// garrison changed.
func (p *Publisher) VillageUpdated(ctx context.Context, villageID string) {
	p.Publish(ctx, TopicVillage, villageID, Event{Type: "village.updated", Payload: map[string]string{"village_id": villageID}})
}

// ArmyArrived announces a battle report, scout report or settlement being
// created as the result of an army's arrival.
func (p *Publisher) ArmyArrived(ctx context.Context, villageID, armyID, mission string) {
	p.Publish(ctx, TopicArmy, villageID, Event{
		Type: "army.arrived",
		Payload: map[string]string{
			"village_id": villageID,
			"army_id":    armyID,
			"mission":    mission,
		},
	})
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
