package com

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	readBufferSize      = 1024
	sendingQueueTimeout = 500 * time.Millisecond
)

// prompt is the token the read loop emits when the modem asks for the PDU
// payload of a submit exchange.
const prompt = ">"

// NewWithTrace creates a new COM instance that traces all communications to a second writer.
func NewWithTrace(device io.ReadWriter, tracer io.Writer) *COM {
	result := New(device)
	result.tracer = tracer
	return result
}

// New creates a new COM instance using the given io.ReadWriter to communicate
// with the modem's AT command interface. The returned COM owns the device: all
// writes happen in its goroutine and only one command is in flight at a time,
// since the modem's command interpreter is not reentrant.
func New(device io.ReadWriter) *COM {
	lines := readLoop(device)
	commands := make(chan command)
	result := &COM{
		commands:    commands,
		closed:      make(chan struct{}),
		indications: make(map[string]indicationConfig),
	}

	go func() {
		result.trace("****\n* SESSION START\n****\n")
		defer result.trace("****\n* SESSION END\n****\n")
		defer close(result.closed)

		var commandCancelled <-chan struct{}
		var activeCommand *command
		var activeIndication *indication
		payloadSent := false
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case line, valid := <-lines:
				if !valid {
					return
				}
				result.tracef("rx:  %s\nhex: %X\n--\n", line, line)

				switch {
				case line == prompt:
					if activeCommand != nil && activeCommand.payload != "" && !payloadSent {
						txbytes := []byte(activeCommand.payload)
						result.tracef("tx:  %s\nhex: %X\n--\n", txbytes, txbytes)
						device.Write(txbytes)
						payloadSent = true
					}
					// a prompt without a pending payload is stale, ignore it
				case activeIndication != nil:
					activeIndication.AddLine(line)
					if activeIndication.Complete() {
						activeIndication = nil
					}
				case activeCommand != nil:
					activeIndication = result.newIndication(line)
					if activeIndication != nil {
						break
					}
					activeCommand.AddLine(line)
					if activeCommand.Complete() {
						commandCancelled = nil
						activeCommand = nil
					}
				default:
					activeIndication = result.newIndication(line)
				}
			case <-commandCancelled:
				commandCancelled = nil
				activeCommand = nil
			case <-tick.C:
			}
			if activeCommand == nil {
				select {
				case cmd := <-commands:
					if len(cmd.request) == 0 {
						break
					}

					txbytes := make([]byte, 0, len(cmd.request)+2)
					txbytes = append(txbytes, []byte(cmd.request)...)
					lastbyte := txbytes[len(txbytes)-1]
					if (lastbyte != 0x1a) && (lastbyte != 0x1b) {
						txbytes = append(txbytes, 0x0d, 0x0a)
					}
					result.tracef("tx:  %s\nhex: %X\n--\n", txbytes, txbytes)
					device.Write(txbytes)
					commandCancelled = cmd.cancelled
					activeCommand = &cmd
					payloadSent = false
				default:
				}
			}
		}
	}()

	return result
}

// COM allows to communicate with a GSM modem using AT commands.
type COM struct {
	commands chan<- command
	closed   chan struct{}
	tracer   io.Writer

	indications map[string]indicationConfig
}

func readLoop(r io.Reader) <-chan string {
	lines := make(chan string, 1)
	go func() {
		buf := make([]byte, readBufferSize)
		currentLine := make([]byte, 0, readBufferSize)
		for {
			n, err := r.Read(buf)
			if err != nil {
				if len(currentLine) > 0 {
					lines <- string(currentLine)
				}
				close(lines)
				return
			}

			for _, b := range buf[0:n] {
				switch {
				case b == '\n':
					if len(currentLine) == 0 {
						continue
					}
					lines <- string(currentLine)
					currentLine = currentLine[:0]
				case b == '>' && len(currentLine) == 0:
					// the prompt arrives without a line ending
					lines <- prompt
				case b < ' ':
					continue
				default:
					currentLine = append(currentLine, b)
				}
			}
		}
	}()
	return lines
}

func (c *COM) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// AddIndication registers a handler for unsolicited result codes with the
// given prefix, e.g. +CMTI: for incoming message notifications. Indication
// lines never complete a pending command.
func (c *COM) AddIndication(prefix string, trailingLines int, handler func(lines []string)) error {
	config := indicationConfig{
		prefix:        strings.ToUpper(prefix),
		trailingLines: trailingLines,
		handler:       handler,
	}
	c.indications[config.prefix] = config
	return nil
}

func (c *COM) newIndication(line string) *indication {
	for _, config := range c.indications {
		result := config.NewIfMatches(line)
		if result != nil {
			return result
		}
	}
	return nil
}

// Request sends the given AT command and waits for its final result. The
// response lines are returned without the final OK. The given context bounds
// the whole exchange and is the only way to abort it.
func (c *COM) Request(ctx context.Context, request string) ([]string, error) {
	return c.exchange(ctx, request, "")
}

// Submit executes the two-phase submit exchange: it sends the given command,
// waits for the modem's prompt, sends the payload, and waits for the final
// result. The modem performs exactly one submit operation per call.
func (c *COM) Submit(ctx context.Context, command string, payload string) ([]string, error) {
	return c.exchange(ctx, command, payload)
}

func (c *COM) exchange(ctx context.Context, request string, payload string) ([]string, error) {
	cmd := command{
		request:   request,
		payload:   payload,
		response:  make(chan []string, 1),
		err:       make(chan error, 1),
		cancelled: ctx.Done(),
		completed: make(chan struct{}),
	}

	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(sendingQueueTimeout):
		return nil, fmt.Errorf("AT sending queue timeout")
	}

	select {
	case response := <-cmd.response:
		return response, nil
	case err := <-cmd.err:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *COM) trace(args ...interface{}) {
	if c.tracer == nil {
		return
	}
	fmt.Fprint(c.tracer, args...)
}

func (c *COM) tracef(format string, args ...interface{}) {
	if c.tracer == nil {
		return
	}
	fmt.Fprintf(c.tracer, format, args...)
}

type indicationConfig struct {
	prefix        string
	trailingLines int
	handler       func(lines []string)
}

func (c *indicationConfig) NewIfMatches(line string) *indication {
	if !strings.HasPrefix(strings.ToUpper(line), c.prefix) {
		return nil
	}
	result := &indication{
		config: *c,
		lines:  []string{line},
	}
	if result.Complete() {
		c.handler([]string{line})
		return nil
	}

	return result
}

type indication struct {
	config indicationConfig
	lines  []string
}

func (ind *indication) AddLine(line string) {
	if ind.Complete() {
		return
	}

	ind.lines = append(ind.lines, line)
	if ind.Complete() {
		go func() {
			ind.config.handler(ind.lines)
		}()
	}
}

func (ind *indication) Complete() bool {
	return len(ind.lines) >= ind.config.trailingLines+1
}

type command struct {
	lines     []string
	request   string
	payload   string
	response  chan []string
	err       chan error
	cancelled <-chan struct{}
	completed chan struct{}
}

func (c *command) AddLine(line string) {
	select {
	case <-c.cancelled:
		return
	case <-c.completed:
		return
	default:
	}

	saniLine := strings.TrimSpace(strings.ToUpper(line))
	switch {
	case saniLine == "OK":
		c.response <- c.lines
		close(c.completed)
	case strings.HasPrefix(saniLine, "ERROR"):
		c.err <- fmt.Errorf("%s", line)
		close(c.completed)
	case strings.HasPrefix(saniLine, "+CME ERROR:"):
		c.err <- fmt.Errorf("%s", line)
		close(c.completed)
	case strings.HasPrefix(saniLine, "+CMS ERROR"):
		c.err <- fmt.Errorf("%s", line)
		close(c.completed)
	default:
		c.lines = append(c.lines, line)
	}
}

func (c *command) Complete() bool {
	select {
	case <-c.cancelled:
		return true
	case <-c.completed:
		return true
	default:
		return false
	}
}
