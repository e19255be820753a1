package persistent

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/pkg/pkt"
	"bufio"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PacketContainer holds both the raw packet and the extracted record.
// RawPacket may be nil when the record did not come from a capture.
type PacketContainer struct {
	RawPacket gopacket.Packet
	Record    model.FlowRecord
}

// Worker records captured traffic to disk on a single goroutine, so the
// output keeps the capture order.
type Worker struct {
	packetChan chan *PacketContainer
	wg         sync.WaitGroup
	file       *os.File
	encoding   string
	written    uint64
	dropped    uint64
	mu         sync.Mutex
	err        error
}

// NewWorker creates the output file and starts the recording goroutine.
func NewWorker(cfg config.PersistenceConfig) (*Worker, error) {
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create persistence directory: %w", err)
	}

	bufferSize := cfg.ChannelBufferSize
	if bufferSize <= 0 {
		bufferSize = 10000
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "pkt"
	}

	var run func(w *Worker, out *bufio.Writer) error
	switch encoding {
	case "pkt":
		run = (*Worker).runPktWorker
	case "pcap":
		run = (*Worker).runPcapWorker
	case "text":
		run = (*Worker).runTextWorker
	default:
		return nil, &config.ConfigError{Field: "probe.persistence.encoding", Reason: fmt.Sprintf("unknown encoding '%s'", encoding)}
	}

	file, err := createOutputFile(cfg.Path, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Worker{
		packetChan: make(chan *PacketContainer, bufferSize),
		file:       file,
		encoding:   encoding,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		out := bufio.NewWriter(file)
		err := run(w, out)
		if flushErr := out.Flush(); err == nil {
			err = flushErr
		}
		w.setErr(err)
	}()

	log.Printf("Persistent worker started, encoding: %s, writing to: %s", encoding, file.Name())
	return w, nil
}

func createOutputFile(dir, encoding string) (*os.File, error) {
	ext := ".log"
	switch encoding {
	case "pkt":
		ext = ".pkt"
	case "pcap":
		ext = ".pcap"
	}
	fileName := fmt.Sprintf("%s%s", time.Now().Format("2006-01-02_15-04-05"), ext)
	return os.OpenFile(filepath.Join(dir, fileName), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
}

// runPktWorker streams records behind a placeholder header; Stop patches the count.
func (w *Worker) runPktWorker(out *bufio.Writer) error {
	header := pkt.EncodeHeader(0)
	if _, err := out.Write(header[:]); err != nil {
		return err
	}
	var buf [pkt.RecordSize]byte
	for container := range w.packetChan {
		model.EncodeRecord(buf[:], &container.Record)
		if _, err := out.Write(buf[:]); err != nil {
			log.Printf("PersistentWorker (pkt): Error writing record: %v", err)
			continue
		}
		w.written++
	}
	return nil
}

func (w *Worker) runPcapWorker(out *bufio.Writer) error {
	pcapWriter := pcapgo.NewWriter(out)
	if err := pcapWriter.WriteFileHeader(1600, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap file header: %w", err)
	}
	for container := range w.packetChan {
		if container.RawPacket == nil {
			continue
		}
		if err := pcapWriter.WritePacket(container.RawPacket.Metadata().CaptureInfo, container.RawPacket.Data()); err != nil {
			log.Printf("PersistentWorker (pcap): Error writing packet: %v", err)
			continue
		}
		w.written++
	}
	return nil
}

func (w *Worker) runTextWorker(out *bufio.Writer) error {
	for container := range w.packetChan {
		rec := container.Record
		line := fmt.Sprintf("%s -> %s\n", model.AddrToIP(rec.SrcAddr), model.AddrToIP(rec.DstAddr))
		if container.RawPacket != nil {
			line = container.RawPacket.Metadata().Timestamp.Format("2006-01-02 15:04:05.000") + " - " + line
		}
		if _, err := out.WriteString(line); err != nil {
			log.Printf("PersistentWorker (text): Error writing record: %v", err)
			continue
		}
		w.written++
	}
	return nil
}

// Enqueue hands a container to the recording goroutine, dropping it when the buffer is full.
func (w *Worker) Enqueue(container *PacketContainer) {
	select {
	case w.packetChan <- container:
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
	}
}

// Stop drains the buffer, finalizes the file and closes it.
// Enqueue must not be called afterwards.
func (w *Worker) Stop() error {
	close(w.packetChan)
	w.wg.Wait()

	err := w.getErr()
	if err == nil && w.encoding == "pkt" {
		var count [8]byte
		binary.LittleEndian.PutUint64(count[:], w.written)
		if _, werr := w.file.WriteAt(count[:], 8); werr != nil {
			err = fmt.Errorf("failed to finalize PKT header: %w", werr)
		}
	}
	if cerr := w.file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	log.Printf("Persistent worker stopped: %d written, %d dropped, file %s", w.written, w.Dropped(), w.file.Name())
	return err
}

// Path returns the output file path.
func (w *Worker) Path() string {
	return w.file.Name()
}

// Written returns the number of entries written. Only final after Stop.
func (w *Worker) Written() uint64 {
	return w.written
}

// Dropped returns the number of containers dropped because the buffer was full.
func (w *Worker) Dropped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

func (w *Worker) getErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
