package kafka

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

const (
	eventTypeHeader = "event_type"
	writeTimeout    = 10 * time.Second
)

var errNoBrokers = errors.New("no kafka brokers configured")

// Producer синхронно публикует события заказов: outbox помечает событие отправленным
// только после подтверждения от всех реплик.
type Producer struct {
	writer *kafka.Writer
	dialer *kafka.Dialer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(log logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), errNoBrokers)
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: false,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				log.Warnf("kafka writer: "+msg, args...)
			}),
		},
		dialer: &kafka.Dialer{Timeout: writeTimeout, DualStack: true},
		logger: log,
		cfg:    cfg,
	}, nil
}

// WriteRawMessage пишет одно событие. Ключ сообщения — id заказа.
func (p *Producer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	if err := p.writer.WriteMessages(ctx, newMessage(req)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func newMessage(req *usecase.WriteRawMessageReq) kafka.Message {
	msg := kafka.Message{
		Key:   []byte(req.Key),
		Value: req.Payload,
	}
	if req.EventType != "" {
		msg.Headers = []kafka.Header{{Key: eventTypeHeader, Value: []byte(req.EventType)}}
	}

	return msg
}

// EnsureTopic создаёт топик через контроллер кластера, если его ещё нет.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	conn, err := p.dialer.DialContext(ctx, p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	if partitions, err := conn.ReadPartitions(p.cfg.Topic); err == nil && len(partitions) > 0 {
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := p.dialer.DialContext(ctx, p.cfg.NetworkMode, addr)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer ctrlConn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = ctrlConn.SetDeadline(deadline)
	}
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             p.cfg.Topic,
		NumPartitions:     p.cfg.Partitions,
		ReplicationFactor: p.cfg.ReplicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.logger.Infof("kafka topic %s is ready", p.cfg.Topic)
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
