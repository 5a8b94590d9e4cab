package observability

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TracingPublisherDecorator opens a span per published message and injects the
// trace context into message metadata so consumers continue the trace.
type TracingPublisherDecorator struct {
	message.Publisher
}

func (p TracingPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for i := range messages {
		ctx, span := otel.Tracer("bookings").Start(messages[i].Context(), "publish "+topic)
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(messages[i].Metadata))
		messages[i].SetContext(ctx)
		span.End()
	}

	return p.Publisher.Publish(topic, messages...)
}
