// Package storage appends raw telemetry frames to daily log files,
// rotating at midnight UTC and gzip-compressing the previous day.
package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Storage handles writing raw telemetry frames to files
type Storage struct {
	outputDir string
	stationID string
	file      *os.File
	mu        sync.Mutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// New creates a new Storage instance for one ground station
func New(outputDir, stationID string) *Storage {
	return &Storage{
		outputDir: outputDir,
		stationID: stationID,
		stopChan:  make(chan struct{}),
	}
}

// Start opens today's log file and starts the rotation timer
func (s *Storage) Start() error {
	if err := os.MkdirAll(s.outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s.mu.Lock()
	err := s.openCurrentFile()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.rotationTimer()
	return nil
}

// Stop closes the current file and stops the rotation timer
func (s *Storage) Stop() error {
	close(s.stopChan)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// WriteFrame appends one raw frame, newline-terminated, to the current
// log file.
func (s *Storage) WriteFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.openCurrentFile(); err != nil {
			return err
		}
	}

	if len(frame) > 0 && frame[len(frame)-1] == '\n' {
		_, err := s.file.Write(frame)
		return err
	}
	_, err := s.file.Write(append(frame, '\n'))
	return err
}

// CurrentPath returns the path of today's log file.
func (s *Storage) CurrentPath() string {
	return s.pathFor(time.Now().UTC())
}

func (s *Storage) pathFor(day time.Time) string {
	name := fmt.Sprintf("telemetry_%s_%s.log", s.stationID, day.Format("2006-01-02"))
	return filepath.Join(s.outputDir, name)
}

func (s *Storage) openCurrentFile() error {
	file, err := os.OpenFile(s.CurrentPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	s.file = file
	return nil
}

// rotationTimer handles daily rotation at midnight UTC
func (s *Storage) rotationTimer() {
	defer s.wg.Done()

	for {
		now := time.Now().UTC()
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

		select {
		case <-time.After(nextMidnight.Sub(now)):
			if err := s.rotateAndCompress(); err != nil {
				log.Printf("Error during log rotation: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// rotateAndCompress closes the current file, compresses yesterday's
// log and opens a fresh file for the new day.
func (s *Storage) rotateAndCompress() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	yesterdayFile := s.pathFor(yesterday)
	if _, err := os.Stat(yesterdayFile); err == nil {
		if err := compressFile(yesterdayFile); err != nil {
			return fmt.Errorf("failed to compress file: %w", err)
		}
	}

	return s.openCurrentFile()
}

// compressFile gzips path into path.gz and removes the original
func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
