// Package intentevents publishes navigation intents to Kafka so an external
// router or analytics consumer can act on them.
package intentevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

type Event struct {
	Kind       navigation.Kind `json:"kind"`
	RecyclerID int             `json:"recycler_id,omitempty"`
	Screen     string          `json:"screen,omitempty"`
	TS         time.Time       `json:"ts"`
}

// Publisher is a navigation.Navigator that enqueues intents for Kafka.
// Publishing never blocks: when the queue is full the intent is dropped.
type Publisher struct {
	topic   string
	screen  string
	logger  *slog.Logger
	now     func() time.Time
	events  chan Event
	prod    sarama.AsyncProducer
	stopped chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("intentevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, logger), nil
}

// NewWithProducer wraps an existing producer. The Publisher owns it.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Publisher{
		topic:   topic,
		logger:  logger,
		now:     time.Now,
		events:  make(chan Event, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("intentevents: marshal", "err", err)
				continue
			}
			msg := &sarama.ProducerMessage{
				Topic: p.topic,
				Value: sarama.ByteEncoder(b),
			}
			if ev.RecyclerID != 0 {
				msg.Key = sarama.StringEncoder(strconv.Itoa(ev.RecyclerID))
			}
			p.prod.Input() <- msg
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("intentevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// ForScreen returns a navigator that tags each event with the screen
// current reports at emit time.
func (p *Publisher) ForScreen(current func() string) navigation.Navigator {
	return navigation.NavigatorFunc(func(in navigation.Intent) {
		p.publish(in, current())
	})
}

func (p *Publisher) Navigate(in navigation.Intent) {
	p.publish(in, "")
}

func (p *Publisher) publish(in navigation.Intent, screen string) {
	ev := Event{Kind: in.Kind, RecyclerID: in.RecyclerID, Screen: screen, TS: p.now().UTC()}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Debug("intentevents: queue full, dropping", "kind", string(in.Kind))
	}
}

func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()
		<-p.stopped

		if cerr := p.prod.Close(); cerr != nil {
			err = fmt.Errorf("intentevents: close producer: %w", cerr)
		}
	})
	return err
}
