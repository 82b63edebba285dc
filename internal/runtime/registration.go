package runtime

import (
	"fmt"
	"slices"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
)

// HandlerInfo describes a handler attached to the Service router.
type HandlerInfo struct {
	Name         string `json:"name"`
	ConsumeQueue string `json:"consumeQueue"`
}

// MessageHandlerRegistration wires a raw Watermill handler that consumes a
// topic without publishing replies.
type MessageHandlerRegistration struct {
	Name         string
	ConsumeQueue string
	Handler      message.NoPublishHandlerFunc
	Subscriber   message.Subscriber
}

// RegisterMessageHandler attaches the provided handler to the service router.
func RegisterMessageHandler(svc *Service, cfg MessageHandlerRegistration) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}
	return svc.registerHandler(cfg)
}

func (s *Service) registerHandler(cfg MessageHandlerRegistration) error {
	if cfg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if cfg.ConsumeQueue == "" {
		return errspkg.ErrConsumeQueueRequired
	}
	if cfg.Name == "" {
		return errspkg.ErrHandlerNameRequired
	}
	if cfg.Subscriber == nil {
		cfg.Subscriber = s.subscriber
	}

	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()

	if slices.ContainsFunc(s.handlers, func(h HandlerInfo) bool { return h.Name == cfg.Name }) {
		return fmt.Errorf("handler %q already registered", cfg.Name)
	}
	s.handlers = append(s.handlers, HandlerInfo{Name: cfg.Name, ConsumeQueue: cfg.ConsumeQueue})

	s.router.AddNoPublisherHandler(
		cfg.Name,
		cfg.ConsumeQueue,
		cfg.Subscriber,
		cfg.Handler,
	)
	return nil
}

// Handlers lists the handlers registered on the router, inbound push
// handler included.
func (s *Service) Handlers() []HandlerInfo {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	return slices.Clone(s.handlers)
}
