package mqtt

import (
	"github.com/joperezr/SmartHomePi/internal/logging"
)

// Transport is the slice of Client used by the method server and invoker.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, h MessageHandler) error
	Unsubscribe(topic string) error
}

// Dispatcher executes a named method.
type Dispatcher interface {
	Dispatch(method string, payload []byte) (status int, response []byte)
}

// MethodServer answers direct-method requests addressed to one device.
type MethodServer struct {
	transport  Transport
	topics     Topics
	dispatcher Dispatcher
}

func NewMethodServer(transport Transport, topics Topics, dispatcher Dispatcher) *MethodServer {
	return &MethodServer{transport: transport, topics: topics, dispatcher: dispatcher}
}

func (s *MethodServer) Start() error {
	return s.transport.Subscribe(s.topics.RequestFilter(), s.handleRequest)
}

func (s *MethodServer) Stop() error {
	return s.transport.Unsubscribe(s.topics.RequestFilter())
}

func (s *MethodServer) handleRequest(topic string, payload []byte) {
	method, rid, err := s.topics.ParseRequest(topic)
	if err != nil {
		logging.Warn("Ignoring message: %s", err)
		return
	}
	logging.Debug("Received %s request %s: %s", method, rid, string(payload))

	status, response := s.dispatcher.Dispatch(method, payload)

	if err := s.transport.Publish(s.topics.Response(status, rid), response); err != nil {
		logging.Error("Unable to respond to %s request %s: %s", method, rid, err)
	}
}
