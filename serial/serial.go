package serial

import (
	"errors"
	"io"

	"github.com/jacobsa/go-serial/serial"

	"github.com/gsmlink/gsm-modem/com"
)

var (
	NoModemFound = errors.New("no GSM modem device found")
)

// DefaultBaudRate for the usual USB GSM modem sticks.
const DefaultBaudRate = 115200

// Open the serial device with the given name and baud rate and wrap it into a COM.
func Open(portName string, baudRate uint) (*com.COM, error) {
	device, err := openSerial(portName, baudRate)
	if err != nil {
		return nil, err
	}

	return com.New(device), nil
}

// OpenWithTrace opens the serial device and traces the whole AT session to the given writer.
func OpenWithTrace(portName string, baudRate uint, tracer io.Writer) (*com.COM, error) {
	device, err := openSerial(portName, baudRate)
	if err != nil {
		return nil, err
	}

	return com.NewWithTrace(device, tracer), nil
}

func openSerial(portName string, baudRate uint) (io.ReadWriteCloser, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	portConfig := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       1,
		InterCharacterTimeout: 100,
	}

	return serial.Open(portConfig)
}
