// Package ecgreadout plots an ECG trace from an analog input on a small
// display and estimates the heart rate from it.
//
// A Readout samples an analog.PinADC at a fixed period, scales each reading
// to the height of the plot area and keeps the most recent W-1 samples in a
// ring Buffer. Every refresh it draws the samples as a connected waveform,
// newest on the right, erasing the previous frame column by column instead of
// clearing the whole area.
//
// # Hardware Connection
//
// Any display implementing Surface works. The ili9341 subpackage drives the
// common 320x240 SPI TFT modules; ImageSurface draws into any draw.Image,
// which is useful for tests and headless runs.
//
// The ECG front end (an AD8232 board, for example) is read through an ADC
// exposed by periph.io as an analog.PinADC.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"context"
//
//		"periph.io/x/conn/v3/analog"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/ecgreadout"
//		"periph.io/x/devices/v3/ecgreadout/ili9341"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open SPI bus and create the display
//		spiBus, _ := spireg.Open("")
//		dev, _ := ili9341.NewSPI(spiBus, gpioreg.ByName("GPIO24"), nil)
//		defer dev.Halt()
//
//		var adc analog.PinADC // your ADC channel
//
//		r, _ := ecgreadout.New(adc, dev, nil)
//		r.Run(context.Background())
//	}
//
// # Rendering
//
// Column i of the plot area connects sample i-1 to sample i. Where two
// neighbouring samples differ by more than Opts.Jitter the column is drawn
// as a vertical run, otherwise as a single pixel. Each refresh costs at most
// one erase and one draw operation per column.
//
// # Heart Rate
//
// HeartRate finds the first two samples above Opts.PeakThreshold in the
// buffer, skipping Opts.Refractory samples after the first, and converts
// their distance to beats per minute. With fewer than two peaks on screen
// it returns ErrInsufficientSignal.
//
// # Concurrency
//
// Tick may run on one goroutine while Display and HeartRate run on another.
// Readers work on a Snapshot of the buffer, so they never see a sample
// written halfway through a copy.
package ecgreadout
