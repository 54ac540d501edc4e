package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/roastedworld/roasted"
)

const mintChannel = "roasted:minted"

// SignalService fans out confirmed mints over redis pub/sub so realtime
// subscribers can refresh their feed without polling.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) PublishMinted(ctx context.Context, ev roasted.MintEvent) error {
	jsonstr, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, mintChannel, jsonstr).Err()
}

// SubscribeMinted delivers mint events on the returned channel until ctx is
// cancelled. Undecodable payloads are dropped.
func (s *SignalService) SubscribeMinted(ctx context.Context) (<-chan roasted.MintEvent, error) {
	pubsub := s.rdb.Subscribe(ctx, mintChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	events := make(chan roasted.MintEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var ev roasted.MintEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
