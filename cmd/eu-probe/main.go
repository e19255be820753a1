package main

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/engine/protocol"
	"Go2NetEuclid/internal/probe"
	"Go2NetEuclid/internal/probe/persistent"
	"Go2NetEuclid/pkg/pkt"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	snapshotLen int32 = 1600
	promiscuous       = true
	timeout           = pcap.BlockForever
)

func main() {
	// --- Command-Line Flag Parsing ---
	configPath := flag.String("config", "configs/config.yaml", "Configuration file (YAML or TOML)")
	mode := flag.String("mode", "replay", "Operating mode: 'replay' to publish a PKT file, 'live' to capture an interface, 'sub' to print verdicts.")
	file := flag.String("f", "", "PKT file to replay (replay mode).")
	iface := flag.String("iface", "", "Interface to capture packets from (live mode).")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// --- Mode Dispatch ---
	switch *mode {
	case "replay":
		runReplay(cfg, *file)
	case "live":
		runLive(cfg, *iface)
	case "sub":
		runSubscriber(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runReplay publishes every record of a PKT file in file order.
func runReplay(cfg *config.Config, path string) {
	if path == "" {
		log.Println("Error: -f flag is required for replay mode.")
		flag.Usage()
		os.Exit(1)
	}

	f, err := pkt.Open(path)
	if err != nil {
		log.Fatalf("Failed to open PKT file: %v", err)
	}
	defer f.Close()

	pub, err := probe.NewPublisher(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	log.Printf("Replaying %d records from %s to '%s'...", f.EntryCount(), path, cfg.Probe.Subject)
	for rec, ok := f.Next(); ok; rec, ok = f.Next() {
		if err := pub.Publish(*rec); err != nil {
			log.Fatalf("Failed to publish records: %v", err)
		}
	}
	if err := pub.Flush(); err != nil {
		log.Fatalf("Failed to publish records: %v", err)
	}
	log.Printf("Replay finished, %d records published.", pub.Published())
}

// runLive captures packets from an interface and publishes a record per IPv4 packet.
func runLive(cfg *config.Config, interfaceName string) {
	if interfaceName == "" {
		log.Println("Error: -iface flag is required for live mode.")
		flag.Usage()
		os.Exit(1)
	}
	log.Printf("Starting eu-probe in LIVE mode on interface: %s", interfaceName)

	pub, err := probe.NewPublisher(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	var recorder *persistent.Worker
	if cfg.Probe.Persistence.Enabled {
		recorder, err = persistent.NewWorker(cfg.Probe.Persistence)
		if err != nil {
			log.Fatalf("Failed to start persistence worker: %v", err)
		}
		log.Printf("Recording captured traffic to %s", recorder.Path())
	}

	handle, err := pcap.OpenLive(interfaceName, snapshotLen, promiscuous, timeout)
	if err != nil {
		log.Fatalf("Error opening device %s: %v", interfaceName, err)
	}

	log.Println("Capture started successfully. Publishing records to NATS...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
		for packet := range packetSource.Packets() {
			rec, err := protocol.ParsePacket(packet)
			if err != nil {
				continue
			}
			if recorder != nil {
				recorder.Enqueue(&persistent.PacketContainer{RawPacket: packet, Record: rec})
			}
			if err := pub.Publish(rec); err != nil {
				log.Printf("Failed to publish record: %v", err)
			}
			if n := pub.Published(); n > 0 && n%100000 == 0 {
				log.Printf("%d records published...", n)
			}
		}
	}()

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	handle.Close()
	<-done

	if recorder != nil {
		if err := recorder.Stop(); err != nil {
			log.Printf("ERROR: persistence worker failed: %v", err)
		}
		log.Printf("Recorded %d packets, dropped %d.", recorder.Written(), recorder.Dropped())
	}
}

// runSubscriber prints the window verdicts published by the stream detector.
func runSubscriber(cfg *config.Config) {
	log.Println("Starting eu-probe in SUBSCRIBER mode...")

	subject := cfg.Stream.VerdictSubject
	if subject == "" {
		log.Fatalf("stream.verdict_subject is not configured")
	}

	nc, err := nats.Connect(cfg.Probe.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	_, err = nc.Subscribe(subject, func(msg *nats.Msg) {
		var verdict structpb.Struct
		if err := proto.Unmarshal(msg.Data, &verdict); err != nil {
			log.Printf("Error unmarshaling verdict: %v", err)
			return
		}
		out, err := protojson.Marshal(&verdict)
		if err != nil {
			log.Printf("Error rendering verdict: %v", err)
			return
		}
		log.Printf("Received verdict: %s", out)
	})
	if err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}
	log.Printf("Subscribed to subject '%s'", subject)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
