package radar

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/assembler"
	"github.com/banshee-data/haloradar/internal/haloradar/discovery"
	"github.com/banshee-data/haloradar/internal/haloradar/netio"
	"github.com/banshee-data/haloradar/internal/haloradar/state"
)

func testAddrs() discovery.AddressSet {
	return discovery.AddressSet{
		Interface: &net.Interface{Name: "eth0"},
		RadarAddr: net.IPv4(10, 0, 0, 51),
		Data:      discovery.Endpoint{Group: net.IPv4(236, 6, 7, 8), Port: 16678},
		Report:    discovery.Endpoint{Group: net.IPv4(236, 6, 7, 9), Port: 16679},
		Command:   discovery.Endpoint{Group: net.IPv4(236, 6, 7, 10), Port: 16680},
	}
}

func buildDataFrame(count int) []byte {
	const spokeLen = 521
	b := make([]byte, 4+count*spokeLen)
	b[0], b[1] = 0x01, 0xC4
	b[2], b[3] = byte(count), byte(count>>8)
	off := 4
	for i := 0; i < count; i++ {
		spoke := b[off : off+spokeLen]
		spoke[3] = 0x01
		spoke[5] = byte(i * (4096 / count))
		off += spokeLen
	}
	return b
}

func TestRadar_SectorFlowsThroughToSink(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()
	factory.Seed(addrs.Data.Port, netio.NewMockSocket([]netio.Packet{{Data: buildDataFrame(8)}}))

	sectors := make(chan *assembler.RadarSector, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := Open(ctx, factory, addrs, Sink{
		OnSector: func(s *assembler.RadarSector) { sectors <- s },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	select {
	case s := <-sectors:
		if len(s.Intensities) != 8 {
			t.Errorf("len(Intensities) = %d, want 8", len(s.Intensities))
		}
		if s.FrameID != addrs.RadarAddr.String() {
			t.Errorf("FrameID = %q, want %q", s.FrameID, addrs.RadarAddr.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnSector never called")
	}
}

func TestRadar_StateFlowsThroughHeartbeat(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()
	factory.Seed(addrs.Report.Port, netio.NewMockSocket([]netio.Packet{{Data: []byte{0x01, 0xC4, 0x01}}}))

	states := make(chan state.ControlSet, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := Open(ctx, factory, addrs, Sink{
		OnState: func(cs state.ControlSet) {
			select {
			case states <- cs:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	select {
	case cs := <-states:
		if len(cs) != 1 || cs[0].Name != "status" {
			t.Errorf("ControlSet = %+v", cs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnState never called")
	}
}

func TestRadar_SendCommandDelegatesToSession(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := Open(ctx, factory, addrs, Sink{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if err := r.SendCommand("status", "standby"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	sock := factory.Dialed(addrs.Command.Port)
	if sock == nil || len(sock.Written()) != 1 {
		t.Fatalf("expected 1 write on command socket, got %+v", sock)
	}
}

func TestRadar_CloseJoinsAllGoroutines(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()

	r, err := Open(context.Background(), factory, addrs, Sink{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doneCh := make(chan struct{})
	go func() {
		r.Close()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("Close did not return within 1.5s")
	}
}
