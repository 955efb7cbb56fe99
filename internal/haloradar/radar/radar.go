// Package radar is the driver facade: one Radar per discovered unit, owning
// its estimator, assembler, state cache, and session goroutines. Grounded on
// radar/serial.go's RadarPortInterface (constructed with callbacks/channels,
// a Monitor(ctx) loop, Close() joining everything down), generalized from one
// loop to several cooperating ones per §4.7's capability-not-inheritance
// redesign: OnSector/OnState are plain function values, not an interface a
// caller must implement in full.
package radar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/assembler"
	"github.com/banshee-data/haloradar/internal/haloradar/discovery"
	"github.com/banshee-data/haloradar/internal/haloradar/estimator"
	"github.com/banshee-data/haloradar/internal/haloradar/netio"
	"github.com/banshee-data/haloradar/internal/haloradar/session"
	"github.com/banshee-data/haloradar/internal/haloradar/state"
	"github.com/banshee-data/haloradar/internal/haloradar/wire"
)

// Sink is the set of callbacks a caller supplies to observe a Radar. Either
// field may be nil; a nil callback is simply never invoked.
type Sink struct {
	OnSector func(*assembler.RadarSector)
	OnState  func(state.ControlSet)
	OnNetErr func(socket string, err error)
}

// Radar drives one discovered unit: decodes its data/report streams, tracks
// its control state, and accepts outgoing commands.
type Radar struct {
	Addrs discovery.AddressSet

	estimator *estimator.Estimator
	assembler *assembler.Assembler
	states    *state.StateMap
	heartbeat *state.Heartbeat
	sess      *session.Session

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open starts a Radar against addrs: opens its session sockets, begins the
// heartbeat goroutine, and wires decoded frames through to sink.
func Open(ctx context.Context, factory netio.MulticastFactory, addrs discovery.AddressSet, sink Sink) (*Radar, error) {
	runCtx, cancel := context.WithCancel(ctx)

	est := estimator.New()
	r := &Radar{
		Addrs:     addrs,
		estimator: est,
		assembler: assembler.New(est, addrs.RadarAddr.String()),
		states:    state.NewStateMap(),
		cancel:    cancel,
	}

	r.heartbeat = state.NewHeartbeat(r.states, func(cs state.ControlSet) {
		if sink.OnState != nil {
			sink.OnState(cs)
		}
	})

	sess, err := session.Open(runCtx, factory, addrs, session.Handlers{
		OnSpokes: func(spokes []wire.Spoke) {
			sector, ok := r.assembler.AddFrame(spokes)
			if ok && sink.OnSector != nil {
				sink.OnSector(sector)
			}
		},
		OnReport: func(updates []wire.StateUpdate) {
			for _, u := range updates {
				r.states.Apply(u.Name, u.Value)
			}
			r.heartbeat.NoteReport(time.Now())
		},
		OnNetErr: sink.OnNetErr,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open session for %s: %w", addrs.RadarAddr, err)
	}
	r.sess = sess

	stop := make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.heartbeat.Run(stop)
	}()
	go func() {
		<-runCtx.Done()
		close(stop)
	}()

	return r, nil
}

// SendCommand encodes and sends a control change to the radar.
func (r *Radar) SendCommand(name, value string) error {
	return r.sess.SendCommand(name, value)
}

// Close stops the heartbeat and session goroutines and releases all
// sockets, joining every goroutine before returning.
func (r *Radar) Close() error {
	r.cancel()
	r.wg.Wait()
	return r.sess.Close()
}
