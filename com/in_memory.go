package com

import (
	"io"
	"sync"
	"time"
)

// NewInMemory creates a simulated modem device for tests. Test code scripts
// the modem side by preparing bytes to be read and inspecting the written
// bytes.
func NewInMemory() *InMemory {
	return &InMemory{
		writeSignal: make(chan bool),
		closed:      make(chan struct{}),
	}
}

// InMemory is an io.ReadWriter that simulates the serial connection to a modem.
type InMemory struct {
	mutex          sync.RWMutex
	readBuffer     []byte
	writeBuffer    []byte
	writeSignal    chan bool
	closed         chan struct{}
	closeWhenEmpty bool
}

func (rw *InMemory) Close() error {
	select {
	case <-rw.closed:
	default:
		close(rw.closed)
	}
	return nil
}

func (rw *InMemory) WaitUntilClosed() {
	<-rw.closed
}

func (rw *InMemory) Read(p []byte) (int, error) {
	for {
		rw.mutex.RLock()
		pending := len(rw.readBuffer) > 0
		rw.mutex.RUnlock()
		if pending {
			break
		}
		select {
		case <-rw.closed:
			return 0, io.EOF
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case <-rw.closed:
		return 0, io.EOF
	default:
	}

	rw.mutex.Lock()
	defer rw.mutex.Unlock()
	n := copy(p, rw.readBuffer)
	rw.readBuffer = rw.readBuffer[n:]
	if rw.closeWhenEmpty && len(rw.readBuffer) == 0 {
		close(rw.closed)
	}
	return n, nil
}

// PrepareRead appends bytes that the device will produce on subsequent reads,
// simulating a modem response.
func (rw *InMemory) PrepareRead(p []byte) {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	rw.readBuffer = append(rw.readBuffer, p...)
}

func (rw *InMemory) IsReadEmpty() bool {
	rw.mutex.RLock()
	defer rw.mutex.RUnlock()

	return len(rw.readBuffer) == 0
}

// CloseWhenEmpty lets the device close itself as soon as all prepared bytes
// were consumed.
func (rw *InMemory) CloseWhenEmpty(value bool) {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	rw.closeWhenEmpty = value
}

func (rw *InMemory) Write(p []byte) (int, error) {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	rw.writeBuffer = append(rw.writeBuffer, p...)
	select {
	case rw.writeSignal <- true:
	default:
	}
	return len(p), nil
}

// Written returns everything written to the device so far.
func (rw *InMemory) Written() []byte {
	rw.mutex.RLock()
	defer rw.mutex.RUnlock()

	return rw.writeBuffer
}

// ClearWrite discards the written bytes, e.g. between the phases of an exchange.
func (rw *InMemory) ClearWrite() {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()

	rw.writeBuffer = nil
}

// WaitUntilWritten blocks until the next write to the device happens.
func (rw *InMemory) WaitUntilWritten() {
	<-rw.writeSignal
}
