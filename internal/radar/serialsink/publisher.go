package serialsink

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/radarcluster/internal/monitoring"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
	"github.com/banshee-data/radarcluster/internal/units"
)

var logf = monitoring.Named("serial")

// Publisher writes one line per object to a serial port:
//
//	launch,objectID,x,y,z,speed,count
//
// Positions are in metres with millimetre precision; speed is in the
// configured units.
type Publisher struct {
	mu     sync.Mutex
	port   SerialPorter
	units  string
	buf    bytes.Buffer
	lines  uint64
	closed bool
}

// NewPublisher wraps an open port.
func NewPublisher(port SerialPorter, speedUnits string) (*Publisher, error) {
	if err := units.Validate(speedUnits); err != nil {
		return nil, err
	}
	return &Publisher{port: port, units: speedUnits}, nil
}

// Open opens path with opener (OpenSerialPort when nil) and wraps it.
func Open(path string, opts PortOptions, speedUnits string, opener SerialPortOpener) (*Publisher, error) {
	if err := units.Validate(speedUnits); err != nil {
		return nil, err
	}
	if opener == nil {
		opener = OpenSerialPort
	}
	port, err := opener(path, opts)
	if err != nil {
		return nil, err
	}
	logf("publishing objects to %s in %s", path, speedUnits)
	return NewPublisher(port, speedUnits)
}

// Handoff writes every object of out in a single port write.
func (p *Publisher) Handoff(_ context.Context, out *l6objects.OutputBuffer) error {
	if out.NumObjects() == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("serial publisher closed")
	}

	p.buf.Reset()
	for _, obj := range out.Objects() {
		fmt.Fprintf(&p.buf, "%d,%d,%.3f,%.3f,%.3f,%.2f,%d\n",
			out.Meta.LaunchCount, obj.ObjectID,
			obj.Centroid[0], obj.Centroid[1], obj.Centroid[2],
			units.ConvertSpeed(obj.Speed(), p.units), obj.Count)
	}
	if _, err := p.port.Write(p.buf.Bytes()); err != nil {
		return fmt.Errorf("write frame %d to serial port: %w", out.Meta.LaunchCount, err)
	}
	p.lines += uint64(out.NumObjects())
	return nil
}

// Lines returns the number of object lines written.
func (p *Publisher) Lines() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

// Close closes the port. Later handoffs fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.port.Close()
}
