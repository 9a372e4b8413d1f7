// Package capture maintains TCP connections to radio frame sources and
// feeds received frames to the ingestor.
package capture

import (
	"bufio"
	"log"
	"net"
	"sync"
	"time"
)

const (
	readTimeout    = 30 * time.Second
	reconnectDelay = 5 * time.Second
)

// Frame is one raw telemetry frame received from a source
type Frame struct {
	Source    string
	Data      []byte
	Timestamp time.Time
}

// Capture reads newline-delimited frames from one or more TCP sources,
// reconnecting with a fixed delay when a source drops.
type Capture struct {
	sources   []string
	frameChan chan Frame
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// New creates a new Capture instance
func New(sources []string) *Capture {
	return &Capture{
		sources:   sources,
		frameChan: make(chan Frame, 1000),
		stopChan:  make(chan struct{}),
	}
}

// Frames returns the channel of received frames
func (c *Capture) Frames() <-chan Frame {
	return c.frameChan
}

// Start begins reading from all sources
func (c *Capture) Start() {
	for _, source := range c.sources {
		c.wg.Add(1)
		go c.readSource(source)
	}
}

// Stop terminates all source readers and closes the frame channel
func (c *Capture) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	close(c.frameChan)
}

func (c *Capture) readSource(source string) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", source, readTimeout)
		if err != nil {
			log.Printf("Failed to connect to %s: %v", source, err)
			if !c.sleep(reconnectDelay) {
				return
			}
			continue
		}

		log.Printf("Connected to source: %s", source)
		configureKeepalive(conn, source)

		if err := c.readFrames(conn, source); err != nil {
			log.Printf("Connection to %s lost: %v", source, err)
		}
		conn.Close()

		if !c.sleep(reconnectDelay) {
			return
		}
	}
}

// readFrames pumps newline-delimited frames from one connection until
// it fails or the capture stops.
func (c *Capture) readFrames(conn net.Conn, source string) error {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		frame := Frame{
			Source:    source,
			Data:      append([]byte(nil), line...),
			Timestamp: time.Now().UTC(),
		}

		select {
		case c.frameChan <- frame:
		case <-c.stopChan:
			return nil
		default:
			// Channel full; drop the frame rather than stall the socket.
			log.Printf("Frame buffer full, dropping frame from %s", source)
		}
	}
}

func (c *Capture) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-c.stopChan:
		return false
	}
}

func configureKeepalive(conn net.Conn, source string) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		log.Printf("Warning: failed to set keepalive for %s: %v", source, err)
	}
	if err := tcpConn.SetKeepAlivePeriod(2 * time.Second); err != nil {
		log.Printf("Warning: failed to set keepalive period for %s: %v", source, err)
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		log.Printf("Warning: failed to set no delay for %s: %v", source, err)
	}
}
