// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Command uss-detect probes a serial bus for Siemens USS devices,
// discovering the bus baudrate and the responding device addresses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kolod/uss-detect/internal/config"
	"github.com/kolod/uss-detect/internal/ports"
	"github.com/kolod/uss-detect/internal/prefs"
	"github.com/kolod/uss-detect/internal/scan"
	"github.com/kolod/uss-detect/uss"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cancelled := func() bool { return ctx.Err() != nil }

	fmt.Println("USS Device Detector")
	fmt.Println("Siemens USS Protocol Device Scanner")
	fmt.Println()

	// Everything below the address parse is allowed to proceed with an
	// unusable preference store; a scan is never blocked by it.
	store := prefs.Load(cfg.PrefsFile)

	addresses := scan.AllAddresses()
	if cfg.Addresses != "" {
		addresses, err = scan.ParseAddressSpec(cfg.Addresses)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Testing specific addresses: %v\n", addresses)
	}

	port, err := selectPort(cfg, store, cancelled)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	store.SetLastPort(port.Device)
	store.SetHWID(port.Device, port.HWID)

	fmt.Printf("\nConnected to: %s\n", port.Device)
	if port.Description != "" {
		fmt.Println(port.Description)
	}

	fmt.Println("\nStarting USS device detection...")
	fmt.Println("Press Ctrl+C to stop at any time")
	if cfg.ForceAll {
		fmt.Println("Force mode: testing all baudrate/address combinations")
	}
	fmt.Println()

	opener := func(baudrate int) (scan.Channel, error) {
		return scan.OpenPort(port.Device, baudrate, pollInterval(cfg.Timeout))
	}

	result := scan.Discover(opener, uss.Baudrates, addresses, scan.Options{
		ForceAll: cfg.ForceAll,
		Timeout:  cfg.Timeout,
		Cancel:   cancelled,
		Progress: printProgress,
	})

	printResult(result)
}

// selectPort resolves the serial port: an explicit --port wins,
// otherwise the operator picks interactively with the previous adapter
// as default.
func selectPort(cfg *config.Config, store *prefs.Store, cancelled func() bool) (ports.Info, error) {
	if cfg.Port != "" {
		return ports.Info{Device: cfg.Port, HWID: cfg.Port}, nil
	}

	selector := &ports.Selector{
		List:   ports.List,
		Memory: store,
		In:     os.Stdin,
		Out:    os.Stdout,
		Cancel: cancelled,
	}
	return selector.Select()
}

func printProgress(baudrate, address int, found bool) {
	if found {
		fmt.Printf("  %6d baud: device at address %d\n", baudrate, address)
	}
}

func printResult(result scan.Result) {
	fmt.Println("\n==================================================")
	if result.Found() {
		fmt.Println("Detection complete!")
		fmt.Println()
		fmt.Println("Bus settings:")
		fmt.Printf("  Baudrate:  %d baud\n", result.Baudrate)
		fmt.Println("  Parity:    Even")
		fmt.Println("  Data bits: 8")
		fmt.Println("  Stop bits: 1")
		fmt.Println()
		fmt.Println("Found devices:")
		for _, addr := range result.Addresses {
			fmt.Printf("  - Address: %d\n", addr)
		}
	} else {
		fmt.Println("No USS devices detected")
		fmt.Println()
		fmt.Println("Possible reasons:")
		fmt.Println("  - No devices connected")
		fmt.Println("  - Wrong serial port")
		fmt.Println("  - Devices not powered")
		fmt.Println("  - Non-standard baudrate (try --force-all)")
	}
	fmt.Println("==================================================")
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.LogFile != "" && cfg.LogFile != "-" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// pollInterval derives the channel read granularity from the probe
// timeout so a probe always gets several read attempts within its
// budget.
func pollInterval(timeout time.Duration) time.Duration {
	poll := timeout / 20
	if poll < time.Millisecond {
		poll = time.Millisecond
	}
	return poll
}
