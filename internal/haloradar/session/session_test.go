package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/discovery"
	"github.com/banshee-data/haloradar/internal/haloradar/netio"
	"github.com/banshee-data/haloradar/internal/haloradar/wire"
)

func testAddrs() discovery.AddressSet {
	return discovery.AddressSet{
		Interface: &net.Interface{Name: "eth0"},
		RadarAddr: net.IPv4(10, 0, 0, 50),
		Data:      discovery.Endpoint{Group: net.IPv4(236, 6, 7, 8), Port: 6678},
		Report:    discovery.Endpoint{Group: net.IPv4(236, 6, 7, 9), Port: 6679},
		Command:   discovery.Endpoint{Group: net.IPv4(236, 6, 7, 10), Port: 6680},
	}
}

func buildDataFrame(t *testing.T, count int) []byte {
	t.Helper()
	const spokeLen = 521
	b := make([]byte, 4+count*spokeLen)
	b[0], b[1] = 0x01, 0xC4
	b[2], b[3] = byte(count), byte(count>>8)
	off := 4
	for i := 0; i < count; i++ {
		spoke := b[off : off+spokeLen]
		spoke[3] = 0x01 // large range code
		spoke[5] = byte(i)
		spoke[6] = byte(i >> 8)
		off += spokeLen
	}
	return b
}

func buildReportFrame() []byte {
	return []byte{0x01, 0xC4, 0x01}
}

func TestSession_DataLoopDecodesSpokes(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()
	dataSock := netio.NewMockSocket([]netio.Packet{{Data: buildDataFrame(t, 4)}})
	factory.Seed(addrs.Data.Port, dataSock)

	got := make(chan int, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, factory, addrs, Handlers{
		OnSpokes: func(spokes []wire.Spoke) { got <- len(spokes) },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	select {
	case n := <-got:
		if n != 4 {
			t.Errorf("len(spokes) = %d, want 4", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnSpokes never called")
	}
}

func TestSession_ReportLoopDecodesUpdates(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()
	reportSock := netio.NewMockSocket([]netio.Packet{{Data: buildReportFrame()}})
	factory.Seed(addrs.Report.Port, reportSock)

	var mu sync.Mutex
	var got []wire.StateUpdate
	done := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, factory, addrs, Handlers{
		OnReport: func(updates []wire.StateUpdate) {
			mu.Lock()
			got = updates
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		if len(got) != 1 || got[0].Name != "status" {
			t.Errorf("updates = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnReport never called")
	}
}

func TestSession_SendCommandWritesToDialedSocket(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, factory, addrs, Handlers{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.SendCommand("status", "transmit"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	sent := factory.Dialed(addrs.Command.Port)
	if sent == nil {
		t.Fatal("no socket dialed on command port")
	}
	written := sent.Written()
	if len(written) != 1 {
		t.Fatalf("expected 1 write, got %d", len(written))
	}
}

func TestSession_CloseStopsLoopsWithinDeadline(t *testing.T) {
	addrs := testAddrs()
	factory := netio.NewMockFactory()

	ctx := context.Background()
	s, err := Open(ctx, factory, addrs, Handlers{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doneCh := make(chan struct{})
	go func() {
		s.Close()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("Close did not return within 1.5s")
	}
}
