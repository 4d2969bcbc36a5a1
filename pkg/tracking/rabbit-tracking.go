package tracking

import (
	"time"

	"github.com/matst80/rdf-finder/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

const topicPrefix = "global"

type RabbitTracking struct {
	context    string
	connection *amqp.Connection
}

func NewRabbitTracking(url, context string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		context: context,
	}
	if err := ret.connect(url); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return messaging.DefineDurableTopic(ch, topicPrefix, messaging.TrackingTopic)
}

func (t *RabbitTracking) Connection() *amqp.Connection {
	return t.connection
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) send(data any) error {
	return messaging.SendChange(t.connection, topicPrefix, messaging.TrackingTopic, data)
}

func (t *RabbitTracking) base(sessionId string, event uint16) *BaseEvent {
	return &BaseEvent{SessionId: sessionId, Context: t.context, Event: event, Time: time.Now().UTC()}
}

func (t *RabbitTracking) TrackSearch(sessionId string, event SearchEvent) error {
	event.BaseEvent = t.base(sessionId, EventSearch)
	return t.send(&event)
}

func (t *RabbitTracking) TrackDocument(sessionId string, event DocumentEvent) error {
	event.BaseEvent = t.base(sessionId, EventDocument)
	return t.send(&event)
}
