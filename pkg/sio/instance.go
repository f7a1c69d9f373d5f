package sio

import (
	"context"
	"sync"

	"github.com/sarnezclutch/sioemit/pkg/pubsub"
)

var (
	instanceMu sync.Mutex
	instance   *Emitter
)

// Instance returns the process-wide Emitter, building it on first use from
// pub, or by dialing Redis with o when pub is nil. Arguments of later calls
// are ignored once an instance exists. A failed build is not remembered; the
// next call tries again.
//
// Prefer New or Dial and pass the Emitter explicitly; Instance is for code
// that cannot.
func Instance(ctx context.Context, pub pubsub.Publisher, o Options, opts ...Option) (*Emitter, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	var (
		e   *Emitter
		err error
	)
	if pub != nil {
		e, err = New(pub, append([]Option{WithKey(o.Key)}, opts...)...)
	} else {
		e, err = Dial(ctx, o, opts...)
	}
	if err != nil {
		return nil, err
	}
	instance = e
	return e, nil
}
