package eventbus

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/otelhelper"
)

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	tracer        trace.Tracer
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, tracer trace.Tracer) EventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		tracer:        tracer,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.consume(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) consume(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	traceCtx, span := otelhelper.StartSpan(ctx, eb.tracer, "eventbus consume",
		attribute.String(otelhelper.EventIDKey, msg.UUID),
		attribute.String("event.type", string(eventType)),
	)
	defer span.End()

	handler, exists := eb.subscriptions[eventType]
	if !exists {
		msg.Ack()

		return
	}

	var event any

	switch eventType {
	case events.MediaBuyCreatedEvent:
		event = &events.MediaBuyCreated{}
	case events.MediaBuyPendingApprovalEvent:
		event = &events.MediaBuyPendingApproval{}
	case events.MediaBuyApprovedEvent:
		event = &events.MediaBuyApproved{}
	case events.MediaBuyRejectedEvent:
		event = &events.MediaBuyRejected{}
	case events.MediaBuyFailedEvent:
		event = &events.MediaBuyFailed{}
	case events.MediaBuyUpdatedEvent:
		event = &events.MediaBuyUpdated{}
	case events.WorkflowStepCompletedEvent:
		event = &events.WorkflowStepCompleted{}
	default:
		otelhelper.SetError(span, errors.New("unknown event type"))
		msg.Nack()

		return
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	err = handler(traceCtx, event)
	if err != nil {
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
