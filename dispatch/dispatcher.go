// Package dispatch offers the record list as a target for dispatched
// actions: create and delete requests reduced over the same store the edit
// operations use.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/recordlist/recordlist"
	"github.com/fulldump/recordlist/utils"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrPanic         = errors.New("panic while dispatching")
)

// Result of a dispatched action. ID is the record created or deleted.
type Result struct {
	ID string `json:"id"`
}

type Handler func(ctx context.Context, action *Action) (*Result, error)

// Interceptor wraps a Handler, the first one registered being the outermost.
type Interceptor func(next Handler) Handler

type Dispatcher struct {
	store        *recordlist.Store
	interceptors []Interceptor
	subscribers  []*subscriber
	mutex        sync.Mutex
}

type subscriber struct {
	f func(state []recordlist.Record)
}

func NewDispatcher(store *recordlist.Store) *Dispatcher {
	return &Dispatcher{
		store: store,
	}
}

func (d *Dispatcher) Use(interceptors ...Interceptor) *Dispatcher {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.interceptors = append(d.interceptors, interceptors...)
	return d
}

// Subscribe registers f to receive the whole list after every successful
// dispatch.
func (d *Dispatcher) Subscribe(f func(state []recordlist.Record)) (unsubscribe func()) {
	s := &subscriber{f: f}

	d.mutex.Lock()
	d.subscribers = append(d.subscribers, s)
	d.mutex.Unlock()

	return func() {
		d.mutex.Lock()
		defer d.mutex.Unlock()

		for i, item := range d.subscribers {
			if item == s {
				d.subscribers = append(d.subscribers[:i:i], d.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, action *Action) (*Result, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: nil action", ErrUnknownAction)
	}

	d.mutex.Lock()
	interceptors := append([]Interceptor{}, d.interceptors...)
	d.mutex.Unlock()

	handler := Handler(d.reduce)
	for i := len(interceptors) - 1; i >= 0; i-- {
		handler = interceptors[i](handler)
	}

	result, err := handler(ctx, action)
	if err != nil {
		return nil, err
	}

	d.mutex.Lock()
	subscribers := append([]*subscriber{}, d.subscribers...)
	d.mutex.Unlock()

	if len(subscribers) > 0 {
		state := d.store.List()
		for _, s := range subscribers {
			s.f(state)
		}
	}

	return result, nil
}

var reducers = map[string]func(store *recordlist.Store, action *Action) (*Result, error){
	ActionCreate: reduceCreate,
	ActionDelete: reduceDelete,
}

func (d *Dispatcher) reduce(ctx context.Context, action *Action) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reducer, exists := reducers[action.Type]
	if !exists {
		return nil, fmt.Errorf("%w '%s', must be [%s]", ErrUnknownAction, action.Type, strings.Join(utils.GetKeys(reducers), "|"))
	}

	return reducer(d.store, action)
}

func reduceCreate(store *recordlist.Store, action *Action) (*Result, error) {
	payload := &CreatePayload{}
	err := json.Unmarshal(action.Payload, payload)
	if err != nil {
		return nil, fmt.Errorf("decode create payload: %w", err)
	}

	if payload.ID != "" {
		err := store.Insert(recordlist.Record{ID: payload.ID, Fields: payload.Fields})
		if err != nil {
			return nil, err
		}
		return &Result{ID: payload.ID}, nil
	}

	id, err := store.Create(payload.Fields)
	if err != nil {
		return nil, err
	}

	return &Result{ID: id}, nil
}

func reduceDelete(store *recordlist.Store, action *Action) (*Result, error) {
	payload := &DeletePayload{}
	err := json.Unmarshal(action.Payload, payload)
	if err != nil {
		return nil, fmt.Errorf("decode delete payload: %w", err)
	}

	store.Delete(payload.ID)

	return &Result{ID: payload.ID}, nil
}
