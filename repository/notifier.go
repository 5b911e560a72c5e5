package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"tourbook/catalog"
)

// ChangesChannel carries one message per catalog or page-content write.
const ChangesChannel = "catalog:changes"

// RedisNotifier fans catalog change signals out over Redis pub/sub so every
// server instance refreshes its feeds.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *slog.Logger) *RedisNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &RedisNotifier{rdb: rdb, channel: ChangesChannel, log: log.With("component", "notifier")}
}

// Publish announces a change; what is informational only.
func (n *RedisNotifier) Publish(ctx context.Context, what string) error {
	return n.rdb.Publish(ctx, n.channel, what).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context) (catalog.Subscription, error) {
	ps := n.rdb.Subscribe(ctx, n.channel)
	// wait for the subscribe confirmation so errors surface here
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{ps: ps, log: n.log, done: make(chan struct{})}
	go sub.run()
	return sub, nil
}

type redisSubscription struct {
	ps  *redis.PubSub
	log *slog.Logger

	mu        sync.Mutex
	callbacks []func()

	once sync.Once
	done chan struct{}
}

func (s *redisSubscription) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *redisSubscription) run() {
	defer close(s.done)
	for msg := range s.ps.Channel() {
		s.log.Debug("catalog change", slog.String("payload", msg.Payload))

		s.mu.Lock()
		callbacks := append([]func(){}, s.callbacks...)
		s.mu.Unlock()

		for _, fn := range callbacks {
			fn()
		}
	}
}

// Unsubscribe closes the pub/sub connection and waits for the delivery loop
// to exit. Safe to call more than once.
func (s *redisSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		<-s.done
	})
	return err
}
