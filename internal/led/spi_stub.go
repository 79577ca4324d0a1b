//go:build !linux

package led

import "errors"

var errNoSPI = errors.New("spi driver not supported on this platform")

type SPI struct{}

func NewSPI(spiDev string, count int, colorOrder string, speedHz int, resetUs int) (*SPI, error) {
	return nil, errNoSPI
}

func (s *SPI) Write(rgb []byte) error { return errNoSPI }

func (s *SPI) Close() error { return nil }
