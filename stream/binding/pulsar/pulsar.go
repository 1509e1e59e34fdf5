package pulsar

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/checkmate3d/taxograph/stream/binding"
	streammsg "github.com/checkmate3d/taxograph/stream/message"
)

// messageID The identifier used to identify each message headers
const messageID = "message_id"

func NewPulsar(conf Config) binding.Binding {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: conf.URL,
	})
	if err != nil {
		panic(fmt.Sprintf("create pulsar client failed: %v", err))
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: conf.Topic,
	})
	if err != nil {
		panic(fmt.Sprintf("create pulsar producer failed: %v", err))
	}
	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic: conf.Topic,
	})
	if err != nil {
		panic(fmt.Sprintf("create pulsar consumer failed: %v", err))
	}
	return &Pulsar{
		direction: conf.Direction,
		client:    client,
		producer:  producer,
		consumer:  consumer,
	}
}

type Pulsar struct {
	direction binding.Direction
	client    pulsar.Client
	producer  pulsar.Producer
	consumer  pulsar.Consumer
}

func (p *Pulsar) Send(ctx context.Context, msg streammsg.Message) error {
	if !p.direction.CanSend() {
		return binding.ErrorSendWithinReceiveBinding
	}

	pMsg := &pulsar.ProducerMessage{Payload: msg.Payload()}
	if rk, ok := msg.Headers().Get(streammsg.RoutingKeyHeader); ok {
		if s, ok := rk.(string); ok {
			pMsg.Key = s
		}
	}
	_, err := p.producer.Send(ctx, pMsg)
	return err
}

func (p *Pulsar) Receive(ctx context.Context) (streammsg.Message, error) {
	if !p.direction.CanReceive() {
		return nil, binding.ErrorReceiveWithinSendBinding
	}

	msg, err := p.consumer.Receive(ctx)
	if err != nil {
		return nil, err
	}
	rv := streammsg.NewSimpleMessage()
	rv.SetPayload(msg.Payload()).
		Headers().
		Set(messageID, msg.ID())
	if msg.Key() != "" {
		rv.Headers().Set(streammsg.RoutingKeyHeader, msg.Key())
	}

	if rv.Error() != nil {
		return nil, rv.Error()
	}

	return rv, nil
}

// getMid TODO  handle error
func (p *Pulsar) getMid(msg streammsg.Message) (pulsar.MessageID, error) {
	headers := msg.Headers()
	if headers == nil {
		return nil, nil
	}
	mid, ok := headers.Get(messageID)
	if !ok {
		return nil, nil
	}
	if mid == nil {
		return nil, nil
	}
	pmid, ok := mid.(pulsar.MessageID)
	if !ok {
		return nil, nil
	}
	return pmid, nil
}

func (p *Pulsar) Ack(ctx context.Context, msg streammsg.Message) error {
	mid, err := p.getMid(msg)
	if err != nil {
		return err
	}
	return p.consumer.AckID(mid)
}

func (p *Pulsar) Nack(ctx context.Context, msg streammsg.Message) error {
	mid, err := p.getMid(msg)
	if err != nil {
		return err
	}
	p.consumer.NackID(mid)
	return nil
}

func (p *Pulsar) Close() error {
	p.producer.Close()
	p.consumer.Close()
	p.client.Close()
	return nil
}
