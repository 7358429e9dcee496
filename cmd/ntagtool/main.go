// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command ntagtool reads or writes the text record on an NTAG213/215/216
// tag through a PN532 reader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-ntag"
	"github.com/ZaparooProject/go-pn532-ntag/pkg/ndef"
	"github.com/ZaparooProject/go-pn532-ntag/transport/i2c"
	"github.com/ZaparooProject/go-pn532-ntag/transport/uart"
)

const detectInterval = 250 * time.Millisecond

type config struct {
	writeText  string
	devicePath string
	logDir     string
	retries    int
	write      bool
	inspect    bool
	debug      bool
	sessionLog bool
}

func parseConfig(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("ntagtool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.devicePath, "device", "", "Device path, e.g. /dev/ttyUSB0, COM3 or /dev/i2c-1")
	fs.StringVar(&cfg.writeText, "write", "", "Text to write to the tag")
	fs.BoolVar(&cfg.inspect, "inspect", false, "Print the NDEF records found in the text window")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&cfg.sessionLog, "log", false, "Write a session log file")
	fs.StringVar(&cfg.logDir, "logdir", "", "Directory for the session log file")
	fs.IntVar(&cfg.retries, "retries", 3, "Connection and tag detection attempts")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "write" {
			cfg.write = true
		}
	})
	if cfg.devicePath == "" {
		return nil, errors.New("-device is required")
	}
	if cfg.retries < 1 {
		return nil, fmt.Errorf("-retries must be at least 1, got %d", cfg.retries)
	}
	if cfg.write && cfg.inspect {
		return nil, errors.New("-write and -inspect are mutually exclusive")
	}
	return cfg, nil
}

// newTransport creates a transport from a device path.
func newTransport(path string) (pn532.Transport, error) {
	if strings.Contains(strings.ToLower(path), "i2c") {
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport for %s: %w", path, err)
		}
		return transport, nil
	}

	transport, err := uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport for %s: %w", path, err)
	}
	return transport, nil
}

// waitForTag polls for an NTAG up to attempts times.
func waitForTag(ctx context.Context, device *pn532.Device, attempts int) (*pn532.Target, error) {
	for attempt := range attempts {
		target, err := device.DetectTarget(ctx)
		if err == nil && target.IsNTAG() {
			return target, nil
		}
		if err == nil {
			pn532.Debugf("target %s is not an NTAG (SENS_RES % X)", target.UIDString(), target.SensRes)
		} else {
			pn532.Debugf("detect attempt %d/%d: %v", attempt+1, attempts, err)
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for tag: %w", ctx.Err())
		case <-time.After(detectInterval):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", pn532.ErrTagNotFound, attempts)
}

func run(ctx context.Context, cfg *config, factory pn532.TransportFactory, out io.Writer, opts ...pn532.Option) error {
	if cfg.debug {
		opts = append(opts, pn532.WithTracer(pn532.DebugTracer))
	}
	device, fw, err := pn532.ConnectDevice(ctx, cfg.devicePath, factory,
		pn532.WithConnectionRetries(cfg.retries), pn532.WithDeviceOptions(opts...))
	if err != nil {
		return fmt.Errorf("failed to connect to PN532 device: %w", err)
	}
	defer func() {
		if err := device.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()
	_, _ = fmt.Fprintf(out, "PN532 firmware %s on %s\n", fw, device.Session().Port())

	target, err := waitForTag(ctx, device, cfg.retries)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Tag detected: UID=%s\n", target.UIDString())

	switch {
	case cfg.write:
		if err := device.WriteText(ctx, cfg.writeText); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %q\n", cfg.writeText)
	case cfg.inspect:
		raw, err := device.ReadRaw(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Raw: % X\n", raw)
		records, err := ndef.Inspect(raw)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		for i, rec := range records {
			_, _ = fmt.Fprintf(out, "Record %d: TNF=%d type=%q payload=% X\n", i, rec.TNF, rec.Type, rec.Payload)
		}
	default:
		text, err := device.ReadText(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Text: %s\n", text)
	}
	return nil
}

// reportError prints err for the user. Exhausted size probes are reported
// only as a failed operation; the per-candidate causes go to the debug log.
func reportError(w io.Writer, err error, debug bool) {
	var exErr *pn532.ExhaustedError
	if errors.As(err, &exErr) {
		for _, a := range exErr.Attempts {
			pn532.Debugf("%s as %s: %v", exErr.Op, a.Candidate, a.Err)
		}
		_, _ = fmt.Fprintln(w, "Error: operation failed")
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if te := pn532.GetTrace(err); te != nil && debug {
		_, _ = fmt.Fprint(w, te.FormatTrace())
	}
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := parseConfig(args, os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	if cfg.debug {
		pn532.SetDebugEnabled(true)
	}
	if cfg.sessionLog {
		path, err := pn532.InitSessionLog(cfg.logDir)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer func() { _ = pn532.CloseSessionLog() }()
		_, _ = fmt.Fprintf(os.Stderr, "Session log: %s\n", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, newTransport, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		reportError(os.Stderr, err, cfg.debug)
		return 1
	}
	return 0
}
