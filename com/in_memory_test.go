package com

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemory_Read(t *testing.T) {
	tt := []struct {
		desc     string
		in       string
		bufLen   int
		expected string
	}{
		{"short", "OK\r\n", 10, "OK\r\n"},
		{"exact", "OK\r\n", 4, "OK\r\n"},
		{"long", "OK\r\n", 2, "OK"},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			rw := NewInMemory()
			rw.PrepareRead([]byte(tc.in))
			buf := make([]byte, tc.bufLen)

			n, err := rw.Read(buf)

			assert.NoError(t, err)
			assert.Equal(t, len(tc.expected), n)
			assert.Equal(t, tc.expected, string(buf[0:n]))
		})
	}
}

func TestInMemory_ReadClose(t *testing.T) {
	rw := NewInMemory()

	go func() {
		time.Sleep(100 * time.Nanosecond)
		rw.Close()
	}()

	buf := make([]byte, 10)
	n, err := rw.Read(buf)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestInMemory_ReadLater(t *testing.T) {
	rw := NewInMemory()

	go func() {
		time.Sleep(100 * time.Nanosecond)
		rw.PrepareRead([]byte("+CMGS: 1"))
	}()

	buf := make([]byte, 10)
	n, err := rw.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "+CMGS: 1", string(buf[0:n]))
}

func TestInMemory_CloseWhenEmpty(t *testing.T) {
	rw := NewInMemory()
	rw.PrepareRead([]byte("OK"))
	rw.CloseWhenEmpty(true)

	buf := make([]byte, 10)
	n, err := rw.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = rw.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestInMemory_Write(t *testing.T) {
	rw := NewInMemory()

	n, err := rw.Write([]byte("AT\r\n"))

	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "AT\r\n", string(rw.Written()))

	rw.ClearWrite()
	assert.Equal(t, "", string(rw.Written()))
}
