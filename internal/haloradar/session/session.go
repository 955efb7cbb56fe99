// Package session owns the three UDP multicast receive loops (data, report,
// command-echo) and the connected command-send socket for one discovered
// radar. Grounded on internal/lidar/network/udp_interface.go's
// UDPSocket/UDPSocketFactory testing-seam pattern, generalized from one
// listener to three cooperating ones, and on
// internal/lidar/network/listener.go's
// select{ctx.Done()/default: SetReadDeadline+ReadFromUDP} receive-loop idiom.
package session

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/discovery"
	"github.com/banshee-data/haloradar/internal/haloradar/netio"
	"github.com/banshee-data/haloradar/internal/haloradar/wire"
)

const readBufferSize = 8192

// Handlers receives decoded payloads as the session's receive loops produce
// them. Each callback runs on its own loop's goroutine; implementations must
// not block for long, matching the facade's §4.7 "touched only by its own
// goroutine" contract.
type Handlers struct {
	OnSpokes func(spokes []wire.Spoke)
	OnReport func(updates []wire.StateUpdate)
	// OnCommandEcho is invoked with raw bytes the radar loops back on the
	// command multicast group. Optional: most callers have nothing to do
	// with it beyond keeping the socket drained.
	OnCommandEcho func(b []byte)
	OnNetErr      func(socket string, err error)
}

// Session owns the sockets for one radar and the goroutines reading them.
type Session struct {
	addrs    discovery.AddressSet
	factory  netio.MulticastFactory
	handlers Handlers

	dataSock    netio.Socket
	reportSock  netio.Socket
	commandSock netio.Socket // command-echo receive
	sendSock    netio.Socket // connected, for SendCommand

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open binds all four sockets and starts the three receive loops. Callers
// must call Close to stop the loops and release the sockets.
func Open(ctx context.Context, factory netio.MulticastFactory, addrs discovery.AddressSet, handlers Handlers) (*Session, error) {
	dataSock, err := factory.ListenMulticast(addrs.Interface, addrs.Data.Group, addrs.Data.Port)
	if err != nil {
		return nil, fmt.Errorf("open data socket: %w", err)
	}
	reportSock, err := factory.ListenMulticast(addrs.Interface, addrs.Report.Group, addrs.Report.Port)
	if err != nil {
		_ = dataSock.Close()
		return nil, fmt.Errorf("open report socket: %w", err)
	}
	commandSock, err := factory.ListenMulticast(addrs.Interface, addrs.Command.Group, addrs.Command.Port)
	if err != nil {
		_ = dataSock.Close()
		_ = reportSock.Close()
		return nil, fmt.Errorf("open command socket: %w", err)
	}
	sendSock, err := factory.DialMulticast(addrs.Interface, addrs.Command.Group, addrs.Command.Port)
	if err != nil {
		_ = dataSock.Close()
		_ = reportSock.Close()
		_ = commandSock.Close()
		return nil, fmt.Errorf("open command send socket: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		addrs:       addrs,
		factory:     factory,
		handlers:    handlers,
		dataSock:    dataSock,
		reportSock:  reportSock,
		commandSock: commandSock,
		sendSock:    sendSock,
		cancel:      cancel,
	}

	s.wg.Add(3)
	go s.receiveLoop(runCtx, "data", dataSock, s.handleData)
	go s.receiveLoop(runCtx, "report", reportSock, s.handleReport)
	go s.receiveLoop(runCtx, "command-echo", commandSock, s.handleCommandEcho)

	return s, nil
}

// SendCommand encodes name/value via the wire package and writes it to the
// radar's command multicast group.
func (s *Session) SendCommand(name, value string) error {
	payload, err := wire.EncodeCommand(name, value)
	if err != nil {
		return err
	}
	if _, err := s.sendSock.WriteTo(payload); err != nil {
		return fmt.Errorf("send command %s: %w", name, err)
	}
	return nil
}

// Close stops the receive loops and closes every socket, joining all
// goroutines before returning (§5: "destructor joins all threads").
func (s *Session) Close() error {
	s.cancel()
	s.wg.Wait()

	var firstErr error
	for _, sock := range []netio.Socket{s.dataSock, s.reportSock, s.commandSock, s.sendSock} {
		if err := sock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Session) handleData(b []byte) {
	spokes, err := wire.DecodeDataFrame(b)
	if err != nil {
		if s.handlers.OnNetErr != nil {
			s.handlers.OnNetErr("data", err)
		}
		return
	}
	if s.handlers.OnSpokes != nil {
		s.handlers.OnSpokes(spokes)
	}
}

func (s *Session) handleCommandEcho(b []byte) {
	if s.handlers.OnCommandEcho != nil {
		s.handlers.OnCommandEcho(b)
	}
}

func (s *Session) handleReport(b []byte) {
	updates, err := wire.DecodeReportFrame(b)
	if err != nil {
		if s.handlers.OnNetErr != nil {
			s.handlers.OnNetErr("report", err)
		}
		return
	}
	if s.handlers.OnReport != nil {
		s.handlers.OnReport(updates)
	}
}

// receiveLoop polls sock with a short read deadline so it can notice ctx
// cancellation promptly (within 1.5s per §8), handing each datagram's bytes
// to handle.
func (s *Session) receiveLoop(ctx context.Context, name string, sock netio.Socket, handle func([]byte)) {
	defer s.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = sock.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := sock.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("haloradar/session: %s socket read error: %v", name, err)
			if s.handlers.OnNetErr != nil {
				s.handlers.OnNetErr(name, err)
			}
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		handle(frame)
	}
}
