// gsmsend sends one short message through a GSM modem attached to a serial port.
//
//	gsmsend -to +491711234567 -text "hello world"
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gsmlink/gsm-modem/config"
	"github.com/gsmlink/gsm-modem/gsm"
	"github.com/gsmlink/gsm-modem/serial"
	"github.com/gsmlink/gsm-modem/sms"
)

func main() {
	configFile := flag.String("config", "", "configuration file (TOML)")
	device := flag.String("device", "", "serial device, e.g. /dev/ttyUSB0 (overrides the configuration)")
	to := flag.String("to", "", "destination number, with leading + for international format")
	text := flag.String("text", "", "the message text")
	trace := flag.Bool("trace", false, "trace the AT session to stderr")
	verbose := flag.Bool("verbose", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *to == "" || *text == "" {
		log.Fatal("both -to and -text are required")
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *device != "" {
		cfg.Modem.Device = *device
	}
	if cfg.Modem.Device == "" {
		portName, err := serial.FindModemPortName()
		if err != nil {
			log.Fatal(err)
		}
		cfg.Modem.Device = portName
	}

	var modem gsm.Submitter
	var err error
	if *trace {
		modem, err = serial.OpenWithTrace(cfg.Modem.Device, cfg.Modem.BaudRate, os.Stderr)
	} else {
		modem, err = serial.Open(cfg.Modem.Device, cfg.Modem.BaudRate)
	}
	if err != nil {
		log.WithField("device", cfg.Modem.Device).Fatal(err)
	}

	options := []sms.SenderOption{}
	if cfg.Modem.InternationalFallback {
		options = append(options, sms.WithFallbackType(sms.International))
	}
	sender := sms.NewSender(modem, cfg.ResponseTimeout(), log, options...)

	if err := sender.Send(context.Background(), *to, *text); err != nil {
		log.Fatal(err)
	}
	log.WithField("destination", *to).Info("message sent")
}
