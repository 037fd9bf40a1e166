package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus is the in-process publisher services emit domain events on.
// Handlers are plain functions; an event is delivered to every handler
// whose signature matches the published arguments.
type EventBus interface {
	Publish(args ...interface{})
	Subscribe(handler interface{})
	Unsubscribe(handler interface{})
	Clear()
	SubscribersCount() int
}

type publisher struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers []interface{}
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisher{log: log}
}

// MatchSignature reports whether the handler function accepts the given
// argument list, honoring interface satisfaction and nil arguments.
func MatchSignature(handler interface{}, args []interface{}) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != len(args) {
		return false
	}
	for i, arg := range args {
		param := t.In(i)
		if arg == nil {
			if param.Kind() != reflect.Interface && param.Kind() != reflect.Ptr {
				return false
			}
			continue
		}
		at := reflect.TypeOf(arg)
		if param.Kind() == reflect.Interface {
			if !at.Implements(param) {
				return false
			}
			continue
		}
		if !at.AssignableTo(param) {
			return false
		}
	}
	return true
}

func (p *publisher) Publish(args ...interface{}) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = reflect.ValueOf(arg)
	}

	p.mu.RLock()
	handlers := make([]interface{}, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	delivered := false
	for _, h := range handlers {
		if !MatchSignature(h, args) {
			continue
		}
		p.call(reflect.ValueOf(h), in)
		delivered = true
	}
	if !delivered && p.log != nil {
		p.log.Warnf("eventbus.Publish: no matching subscribers for event with args: %v", in)
	}
}

// call isolates a single handler so one panicking subscriber cannot take
// down the publishing service.
func (p *publisher) call(fn reflect.Value, in []reflect.Value) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Errorf("eventbus: handler %s panicked: %v", fn.Type(), r)
		}
	}()
	fn.Call(in)
}

func (p *publisher) Subscribe(handler interface{}) {
	if t := reflect.TypeOf(handler); t == nil || t.Kind() != reflect.Func {
		panic("eventbus: handler must be a function")
	}
	p.mu.Lock()
	p.handlers = append(p.handlers, handler)
	p.mu.Unlock()
}

func (p *publisher) Unsubscribe(handler interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, h := range p.handlers {
		if h == handler {
			p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
			return
		}
	}
}

func (p *publisher) Clear() {
	p.mu.Lock()
	p.handlers = nil
	p.mu.Unlock()
}

func (p *publisher) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}
