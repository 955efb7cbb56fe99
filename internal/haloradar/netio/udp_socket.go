// Package netio provides the UDP socket abstraction shared by discovery and
// session: a small interface over *net.UDPConn plus a multicast-aware
// factory, so receive loops can be driven against a mock socket in tests
// exactly as internal/lidar/network does for its unicast listeners.
package netio

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// Socket is the subset of *net.UDPConn the receive loops need. Mirrors
// internal/lidar/network.UDPSocket, generalized with WriteTo for the
// command-send socket.
type Socket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	WriteTo(b []byte) (n int, err error)
	SetReadDeadline(t time.Time) error
	SetReadBuffer(bytes int) error
	Close() error
	LocalAddr() net.Addr
}

// MulticastFactory creates multicast-joined or connected UDP sockets bound
// to a specific local interface. Separated from Socket itself so production
// code can be exercised against RealMulticastFactory and tests against a
// fake without touching the OS network stack.
type MulticastFactory interface {
	// ListenMulticast binds a UDP socket on iface to receive datagrams sent
	// to group:port, joining the multicast group on that interface.
	ListenMulticast(iface *net.Interface, group net.IP, port int) (Socket, error)

	// DialMulticast returns a connected socket suitable for sending
	// datagrams to group:port via iface.
	DialMulticast(iface *net.Interface, group net.IP, port int) (Socket, error)
}

// realSocket wraps *net.UDPConn and, when bound to a multicast group,
// the ipv4.PacketConn used to join it.
type realSocket struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn // non-nil for multicast receive sockets
	dst  *net.UDPAddr     // non-nil for connected/send sockets
}

func (s *realSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	return s.conn.ReadFromUDP(b)
}

func (s *realSocket) WriteTo(b []byte) (int, error) {
	if s.dst != nil {
		return s.conn.WriteToUDP(b, s.dst)
	}
	return s.conn.Write(b)
}

func (s *realSocket) SetReadDeadline(t time.Time) error { return s.conn.SetReadDeadline(t) }
func (s *realSocket) SetReadBuffer(bytes int) error     { return s.conn.SetReadBuffer(bytes) }
func (s *realSocket) LocalAddr() net.Addr               { return s.conn.LocalAddr() }

func (s *realSocket) Close() error {
	if s.pc != nil {
		_ = s.pc.Close()
	}
	return s.conn.Close()
}

// RealMulticastFactory implements MulticastFactory against the OS network
// stack using golang.org/x/net/ipv4 for the interface-scoped group join.
type RealMulticastFactory struct{}

// NewRealMulticastFactory returns a RealMulticastFactory.
func NewRealMulticastFactory() *RealMulticastFactory { return &RealMulticastFactory{} }

// ListenMulticast binds port on all local addresses (0.0.0.0) and joins
// group on iface only. No address-reuse option is set, so only one such
// socket can be bound to a given port at a time.
func (f *RealMulticastFactory) ListenMulticast(iface *net.Interface, group net.IP, port int) (Socket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp4 :%d: %w", port, err)
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join multicast group %s on %s: %w", group, ifaceName(iface), err)
	}
	return &realSocket{conn: conn, pc: pc}, nil
}

// DialMulticast returns a socket connected to group:port, sourced from
// iface's first IPv4 address so the radar can tell which client sent a
// command when more than one host interface is in play.
func (f *RealMulticastFactory) DialMulticast(iface *net.Interface, group net.IP, port int) (Socket, error) {
	laddr, err := interfaceIPv4(iface)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: laddr, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("dial udp4 from %s: %w", laddr, err)
	}
	return &realSocket{conn: conn, dst: &net.UDPAddr{IP: group, Port: port}}, nil
}

func ifaceName(iface *net.Interface) string {
	if iface == nil {
		return "<any>"
	}
	return iface.Name
}

// interfaceIPv4 returns the first non-loopback IPv4 address bound to iface.
func interfaceIPv4(iface *net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("addrs for %s: %w", iface.Name, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address on interface %s", iface.Name)
}
