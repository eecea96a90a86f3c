package greenmq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
)

type KafkaEventRouter struct {
	ctx      context.Context
	producer *kafka.Writer
}

// InitKafkaEventRouter installs a kafka-backed router for socket events.
// Expects EventsConfig with a non-empty broker list and topic.
func InitKafkaEventRouter(ctx context.Context, conf EventsConfig) error {
	kafkaEventRouter := &KafkaEventRouter{
		ctx: ctx,
	}
	err := kafkaEventRouter.configure(conf)
	if err != nil {
		return err
	}
	eventRouter = kafkaEventRouter
	return nil
}

func (kef *KafkaEventRouter) Process(key string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	return kef.producer.WriteMessages(kef.ctx, message)
}

func (kef *KafkaEventRouter) configure(conf EventsConfig) error {
	if conf.KafkaBrokers == "" || conf.KafkaTopic == "" {
		return errors.New("incorrect kafka configuration for event router")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(conf.KafkaBrokers, ",")...),
		Topic:        conf.KafkaTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Balancer:     &kafka.RoundRobin{},
	}
	kef.producer = writer
	return nil
}
