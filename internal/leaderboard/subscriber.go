package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/pkg/http/ws"
)

// DefaultChannel carries leaderboard updates between instances.
const DefaultChannel = "lb:updates"

// Topic is the hub topic that live leaderboard viewers of window join.
func Topic(window string) string {
	return "leaderboard:" + window
}

// Broadcaster relays leaderboard updates published by any instance to the
// WebSocket viewers connected to this one. Each update goes to the viewers of
// its window and to the live feed of the match that produced it.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a broadcaster for channel, or DefaultChannel when
// channel is empty.
func NewBroadcaster(redis *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "leaderboard_broadcaster").Str("channel", channel).Logger(),
	}
}

// Run relays updates until ctx is cancelled or the subscription closes.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so a bad Redis fails fast.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info().Msg("relaying leaderboard updates")

	updates := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			b.relay([]byte(msg.Payload))
		}
	}
}

// relay returns how many connections the update was queued for.
func (b *Broadcaster) relay(payload []byte) int {
	var update ws.LeaderboardUpdatePayload
	if err := json.Unmarshal(payload, &update); err != nil {
		b.logger.Warn().Err(err).Msg("dropping malformed leaderboard update")
		return 0
	}
	if !IsValidWindow(update.Window) {
		b.logger.Warn().Str("window", update.Window).Msg("dropping leaderboard update for unknown window")
		return 0
	}

	msg, err := ws.NewMessage(ws.TypeLeaderboardUpdate, update)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to encode leaderboard update")
		return 0
	}

	delivered := b.hub.Publish(Topic(update.Window), msg)
	if update.MatchID != "" {
		delivered += b.hub.Publish(update.MatchID, msg)
	}

	b.logger.Debug().
		Str("window", update.Window).
		Str("match_id", update.MatchID).
		Int("delivered", delivered).
		Msg("leaderboard update relayed")
	return delivered
}
