package kafka

import (
	"context"
	"errors"

	"github.com/checkmate3d/taxograph/stream/binding"
	streammsg "github.com/checkmate3d/taxograph/stream/message"
	"github.com/segmentio/kafka-go"
)

// messageID The identifier used to identify each message headers
const messageID = "message_id"

var _ binding.Binding = (*Kafka)(nil)

type Config struct {
	URL       string            `json:"URL" yaml:"URL"`
	Topic     string            `json:"Topic" yaml:"Topic"`
	Direction binding.Direction `json:"Direction" yaml:"Direction"`
}

func NewKafka(conf Config) binding.Binding {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{conf.URL},
		Topic:          conf.Topic,
		Partition:      0,
		MinBytes:       10e3,
		CommitInterval: 0,
	})
	writer := &kafka.Writer{
		Addr:  kafka.TCP(conf.URL),
		Topic: conf.Topic,
	}
	return &Kafka{
		direction: conf.Direction,
		reader:    reader,
		writer:    writer,
	}
}

type Kafka struct {
	direction binding.Direction
	reader    *kafka.Reader
	writer    *kafka.Writer
}

func (k *Kafka) Send(ctx context.Context, msg streammsg.Message) error {
	if !k.direction.CanSend() {
		return binding.ErrorSendWithinReceiveBinding
	}

	kMsg := kafka.Message{Value: msg.Payload()}
	if rk, ok := msg.Headers().Get(streammsg.RoutingKeyHeader); ok {
		if s, ok := rk.(string); ok {
			kMsg.Key = []byte(s)
		}
	}
	return k.writer.WriteMessages(ctx, kMsg)
}

func (k *Kafka) Receive(ctx context.Context) (streammsg.Message, error) {
	if !k.direction.CanReceive() {
		return nil, binding.ErrorReceiveWithinSendBinding
	}

	kMsg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	rv := streammsg.NewSimpleMessage()
	rv.SetPayload(kMsg.Value).
		Headers().
		Set(messageID, kMsg)
	if len(kMsg.Key) > 0 {
		rv.Headers().Set(streammsg.RoutingKeyHeader, string(kMsg.Key))
	}

	if rv.Error() != nil {
		return nil, rv.Error()
	}

	return rv, nil
}

func (k *Kafka) Ack(ctx context.Context, msg streammsg.Message) error {
	if !k.direction.CanReceive() {
		return binding.ErrorReceiveWithinSendBinding
	}
	raw, ok := msg.Headers().Get(messageID)
	if !ok {
		return errors.New("ack: message not found")
	}
	kMsg, ok := raw.(kafka.Message)
	if !ok {
		return errors.New("ack: message is not kafka message")
	}

	return k.reader.CommitMessages(ctx, kMsg)
}

func (k *Kafka) Nack(_ context.Context, _ streammsg.Message) error {
	if !k.direction.CanReceive() {
		return binding.ErrorReceiveWithinSendBinding
	}
	return nil
}

func (k *Kafka) Close() error {
	err1 := k.reader.Close()
	err2 := k.writer.Close()
	return errors.Join(err1, err2)
}
