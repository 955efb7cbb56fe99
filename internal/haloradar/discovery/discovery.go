// Package discovery multicast-probes the vendor's discovery group on each
// candidate local interface and parses responses into AddressSet values,
// one per radar found (§4.6). Grounded on
// internal/lidar/network/udp_interface.go's socket abstraction, reused here
// for discovery sockets, and on net.Interfaces() enumeration used the way
// cmd/radar/radar.go enumerates serial ports at startup.
package discovery

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/netio"
)

// discoveryGroup/discoveryPort are the vendor's default discovery
// multicast group and port (the "EC0608C4:6878" family from §6, decoded as
// 236.6.8.196:6878).
var (
	discoveryGroup = net.IPv4(236, 6, 8, 196)
	discoveryPort  = 6878
)

// probePayload is the fixed datagram sent to solicit a discovery response.
// The vendor protocol does not document its exact bytes publicly; this is
// the minimal non-empty probe the reference implementation sends.
var probePayload = []byte{0x01, 0x00, 0x00, 0x00}

// Endpoint is a multicast group + port pair.
type Endpoint struct {
	Group net.IP
	Port  int
}

// AddressSet identifies one radar: the local interface it was heard on, its
// own address, and its three data/report/command endpoints (§3).
type AddressSet struct {
	InterfaceAddr net.IP
	Interface     *net.Interface
	RadarAddr     net.IP
	Data          Endpoint
	Report        Endpoint
	Command       Endpoint
}

// responsePayloadLen is the minimum size of a discovery response this
// driver can parse: radar IPv4 (4) + three group+port pairs (4+2 each).
const responsePayloadLen = 4 + 3*(4+2)

// parseResponse extracts the radar's address and its three endpoint
// triples from a discovery response datagram, via the fixed offsets §4.6
// specifies.
func parseResponse(b []byte) (net.IP, [3]Endpoint, error) {
	var eps [3]Endpoint
	if len(b) < responsePayloadLen {
		return nil, eps, fmt.Errorf("discovery response too short: %d bytes", len(b))
	}
	radarAddr := net.IPv4(b[0], b[1], b[2], b[3])
	off := 4
	for i := range eps {
		group := net.IPv4(b[off], b[off+1], b[off+2], b[off+3])
		port := int(binary.LittleEndian.Uint16(b[off+4 : off+6]))
		eps[i] = Endpoint{Group: group, Port: port}
		off += 6
	}
	return radarAddr, eps, nil
}

// listInterfaces is a seam over net.Interfaces so tests can substitute a
// fixed interface list instead of depending on the host's network config.
var listInterfaces = net.Interfaces

// interfaceAddrs is a seam over (*net.Interface).Addrs for the same reason.
var interfaceAddrs = func(iface *net.Interface) ([]net.Addr, error) {
	return iface.Addrs()
}

// candidateInterfaces returns the up, non-loopback interfaces holding one of
// the explicit IPv4 addresses when explicit is non-empty, else every up,
// non-loopback interface with an IPv4 address, per §4.6.
func candidateInterfaces(explicit []string) ([]*net.Interface, error) {
	ifaces, err := listInterfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	wanted := make(map[string]bool, len(explicit))
	for _, ip := range explicit {
		wanted[ip] = true
	}

	var out []*net.Interface
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := interfaceAddrs(iface)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if len(explicit) == 0 || wanted[ip4.String()] {
				out = append(out, iface)
				break
			}
		}
	}
	return out, nil
}

// Scan probes every candidate interface in turn, reading each one's
// responses for up to timeout after its probe, and returns the distinct
// radars that answered. An empty result is NoRadarsFound, not an error (§7).
func Scan(ctx context.Context, factory netio.MulticastFactory, explicitInterfaces []string, timeout time.Duration) ([]AddressSet, error) {
	ifaces, err := candidateInterfaces(explicitInterfaces)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var found []AddressSet

	for _, iface := range ifaces {
		sock, err := factory.ListenMulticast(iface, discoveryGroup, discoveryPort)
		if err != nil {
			continue // transient per-interface failure: try the next one
		}

		send, err := factory.DialMulticast(iface, discoveryGroup, discoveryPort)
		if err == nil {
			_, _ = send.WriteTo(probePayload)
			_ = send.Close()
		}

		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			if ctx.Err() != nil {
				_ = sock.Close()
				return found, nil
			}
			_ = sock.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			buf := make([]byte, 1500)
			n, _, err := sock.ReadFromUDP(buf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				break
			}
			radarAddr, eps, err := parseResponse(buf[:n])
			if err != nil {
				continue
			}
			key := radarAddr.String()
			if seen[key] {
				continue
			}
			seen[key] = true

			ifaceAddr, _ := firstIPv4(iface)
			found = append(found, AddressSet{
				InterfaceAddr: ifaceAddr,
				Interface:     iface,
				RadarAddr:     radarAddr,
				Data:          eps[0],
				Report:        eps[1],
				Command:       eps[2],
			})
		}
		_ = sock.Close()
	}

	return found, nil
}

func firstIPv4(iface *net.Interface) (net.IP, error) {
	addrs, err := interfaceAddrs(iface)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4, nil
			}
		}
	}
	return nil, fmt.Errorf("no IPv4 address on %s", iface.Name)
}
