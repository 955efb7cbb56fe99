package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/assembler"
	"github.com/banshee-data/haloradar/internal/haloradar/config"
	"github.com/banshee-data/haloradar/internal/haloradar/discovery"
	"github.com/banshee-data/haloradar/internal/haloradar/netio"
	"github.com/banshee-data/haloradar/internal/haloradar/radar"
	"github.com/banshee-data/haloradar/internal/haloradar/state"
)

var (
	configFile     = flag.String("config", "", "Path to JSON config file listing interface IPs to probe (optional)")
	scanTimeout    = flag.Duration("scan-timeout", 3*time.Second, "How long to wait for discovery responses per interface")
	repl           = flag.Bool("repl", false, "Start an interactive command REPL after discovery")
	verboseSectors = flag.Bool("verbose-sectors", false, "Log one line per received radar sector")
)

func main() {
	flag.Parse()

	var interfaces []string
	if *configFile != "" {
		cfg, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *configFile, err)
		}
		interfaces = cfg.Interfaces
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := netio.NewRealMulticastFactory()

	log.Printf("haloradar: scanning for radars (timeout %s)...", *scanTimeout)
	found, err := discovery.Scan(ctx, factory, interfaces, *scanTimeout)
	if err != nil {
		log.Fatalf("discovery scan failed: %v", err)
	}
	if len(found) == 0 {
		log.Println("haloradar: no radars found")
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	radars := make(map[string]*radar.Radar, len(found))

	for _, addrs := range found {
		addrs := addrs
		key := addrs.RadarAddr.String()
		r, err := radar.Open(ctx, factory, addrs, radar.Sink{
			OnSector: func(s *assembler.RadarSector) {
				if *verboseSectors {
					log.Printf("%s: sector angle_start=%.3f rad spokes=%d range_max=%.1fm",
						key, s.AngleStart, len(s.Intensities), s.RangeMax)
				}
			},
			OnState: func(cs state.ControlSet) {
				log.Printf("%s: state update, %d controls", key, len(cs))
			},
			OnNetErr: func(socket string, err error) {
				log.Printf("%s: %s socket error: %v", key, socket, err)
			},
		})
		if err != nil {
			log.Printf("failed to open radar %s: %v", key, err)
			continue
		}
		mu.Lock()
		radars[key] = r
		mu.Unlock()
		log.Printf("haloradar: tracking radar at %s (interface %s)", key, addrs.Interface.Name)
	}

	if len(radars) == 0 {
		log.Println("haloradar: discovery found radars but none could be opened")
		return
	}

	if *repl {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runREPL(ctx, radars)
		}()
	}

	<-ctx.Done()
	log.Println("haloradar: shutting down")

	mu.Lock()
	for key, r := range radars {
		if err := r.Close(); err != nil {
			log.Printf("error closing radar %s: %v", key, err)
		}
	}
	mu.Unlock()

	wg.Wait()
}

// runREPL is a minimal line-based command console: "<radar-ip> <name> <value>"
// sends a command to the named radar; "list" prints tracked radars.
func runREPL(ctx context.Context, radars map[string]*radar.Radar) {
	scan := bufio.NewScanner(os.Stdin)
	fmt.Println("haloradar> enter '<radar-ip> <control> <value>' or 'list', ctrl-D to end input")
	for scan.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if line == "list" {
			for key := range radars {
				fmt.Println(key)
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			fmt.Println("usage: <radar-ip> <control> <value>")
			continue
		}
		r, ok := radars[fields[0]]
		if !ok {
			fmt.Printf("unknown radar %q\n", fields[0])
			continue
		}
		if err := r.SendCommand(fields[1], fields[2]); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}
