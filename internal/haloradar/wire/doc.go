// Package wire decodes and encodes the Halo radar's three UDP frame
// kinds — data, report, and command — as pure byte-slice <-> struct
// functions. Nothing here touches a socket; internal/haloradar/session owns
// the network side and calls into this package per received datagram,
// mirroring how internal/lidar/l1packets/parse is a pure decoder consumed
// by internal/lidar/network's listener.
package wire
