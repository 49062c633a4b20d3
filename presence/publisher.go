package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, a Activity) error
	Clear(ctx context.Context) error
}

// Publishers fans out to every publisher and joins their errors.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, a Activity) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ps Publishers) Clear(ctx context.Context) error {
	var errs []error
	for _, p := range ps {
		if err := p.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher prints an activity whenever it differs from the last one.
type LogPublisher struct {
	log     *logger.Logger
	last    *Activity
	cleared bool
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "presence")),
	}
}

func (p *LogPublisher) Publish(_ context.Context, a Activity) error {
	if p.last != nil && reflect.DeepEqual(*p.last, a) {
		return nil
	}
	p.last = &a
	p.cleared = false
	p.log.Infoln(a.Details, "|", a.State, "|", a.Assets.LargeImage, a.Assets.SmallImage)
	return nil
}

func (p *LogPublisher) Clear(context.Context) error {
	if !p.cleared {
		p.log.Infoln("Presence cleared")
	}
	p.last = nil
	p.cleared = true
	return nil
}

const (
	MessageUpdate = "update"
	MessageClear  = "clear"

	DefaultChannel = "fearrpc:presence"
)

// Message is the JSON document sent on the channel and stored under the latest key.
type Message struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"application_id,omitempty"`
	Activity      *Activity `json:"activity,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}

// RedisPublisher publishes every update on a pub/sub channel and keeps the
// most recent one under "<channel>:latest" for late subscribers.
type RedisPublisher struct {
	rdb     *redis.Client
	appID   string
	channel string
	now     func() time.Time
}

func NewRedisPublisher(rdb *redis.Client, appID, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, appID: appID, channel: channel, now: time.Now}
}

// DialRedis parses a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (p *RedisPublisher) Channel() string   { return p.channel }
func (p *RedisPublisher) LatestKey() string { return p.channel + ":latest" }

func (p *RedisPublisher) Publish(ctx context.Context, a Activity) error {
	raw, err := json.Marshal(Message{Type: MessageUpdate, ApplicationID: p.appID, Activity: &a, SentAt: p.now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.LatestKey(), raw, 0)
		pipe.Publish(ctx, p.channel, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Clear(ctx context.Context) error {
	raw, err := json.Marshal(Message{Type: MessageClear, ApplicationID: p.appID, SentAt: p.now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.LatestKey())
		pipe.Publish(ctx, p.channel, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear presence: %w", err)
	}
	return nil
}

// Latest returns the stored activity, or nil when presence is cleared.
func (p *RedisPublisher) Latest(ctx context.Context) (*Activity, error) {
	raw, err := p.rdb.Get(ctx, p.LatestKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m.Activity, nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
