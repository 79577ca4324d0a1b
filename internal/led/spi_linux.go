//go:build linux

package led

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

// Minimal spidev ioctl bindings. NRZ is the periph.io based alternative.
const (
	spiIOCWriteMode        = 0x40016b01
	spiIOCWriteBitsPerWord = 0x40016b03
	spiIOCWriteMaxSpeedHz  = 0x40046b04
)

type SPI struct {
	mu      sync.Mutex
	f       *os.File
	count   int
	speedHz int
	resetUs int
	enc     *Encoder
	buf     []byte
}

// NewSPI opens spidev (e.g. "/dev/spidev0.0") and prepares an encoder for WS2812-over-SPI.
// speedHz in the 2_400_000–3_200_000 range works well with this 3x expand scheme.
// colorOrder like "GRB" or "RGB". resetUs is the latch (usually >= 280µs; 300–400 is safe).
func NewSPI(spiDev string, count int, colorOrder string, speedHz int, resetUs int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = DefaultSPISpeed
	}
	if resetUs <= 0 {
		resetUs = DefaultResetUs
	}
	enc, err := NewEncoder(colorOrder)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(spiDev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open spidev: %w", err)
	}
	mode := byte(0)
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteMode, uintptr(unsafe.Pointer(&mode))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set mode: %v", e)
	}
	bpw := byte(8)
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteBitsPerWord, uintptr(unsafe.Pointer(&bpw))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set bits-per-word: %v", e)
	}
	speed := uint32(speedHz)
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteMaxSpeedHz, uintptr(unsafe.Pointer(&speed))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set speed: %v", e)
	}

	return &SPI{
		f:       f,
		count:   count,
		speedHz: speedHz,
		resetUs: resetUs,
		enc:     enc,
	}, nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}

// Write takes len(rgb)==3*count and sends the encoded stream plus the latch tail.
func (s *SPI) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("SPI closed")
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}

	s.buf = s.enc.Encode(s.buf[:0], rgb)
	for n := LatchBytes(s.resetUs, s.speedHz); n > 0; n-- {
		s.buf = append(s.buf, 0)
	}
	if _, err := s.f.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}
