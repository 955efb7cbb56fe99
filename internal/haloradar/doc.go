// Package haloradar is the umbrella for the Simrad/Navico Halo marine radar
// driver: discovery, wire codec, scanline assembly, angular-speed
// estimation, network session, and the per-radar facade. Each concern lives
// in its own sub-package, the way internal/lidar splits ingest, framing, and
// tracking into cooperating layers.
package haloradar
