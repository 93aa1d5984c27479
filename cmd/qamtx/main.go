package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeongseonghan/qam-modulator/internal/audio"
	"github.com/jeongseonghan/qam-modulator/internal/config"
	"github.com/jeongseonghan/qam-modulator/internal/modem"
	"github.com/jeongseonghan/qam-modulator/internal/server"
	"github.com/jeongseonghan/qam-modulator/internal/sink"
	"github.com/jeongseonghan/qam-modulator/internal/source"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults match the reference transmitter)")
	inPath := flag.String("in", "", "Input payload file (required)")
	repeat := flag.Int("repeat", 1, "Payload passes; 0 loops forever")
	outPath := flag.String("out", "", "Write baseband as interleaved float32 I/Q to this file")
	playAudio := flag.Bool("audio", false, "Play baseband through the default output device (I left, Q right)")
	serveAddr := flag.String("serve", "", "Serve the constellation monitor on this address (e.g. 0.0.0.0:8080)")
	listDevices := flag.Bool("list-devices", false, "List audio output devices and exit")
	flag.Parse()

	if *listDevices {
		if err := audio.Init(); err != nil {
			log.Fatalf("Failed to initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
		if err := audio.PrintDevices(); err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}
	pcfg, err := cfg.Pipeline()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if *inPath == "" {
		log.Fatal("No input file: use -in")
	}
	src, f, err := source.FileLoop(*inPath, *repeat)
	if err != nil {
		log.Fatalf("Input error: %v", err)
	}
	defer f.Close()

	pipeline, err := modem.NewPipeline(pcfg, nil, src)
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}

	var sinks []sink.Sink
	if *outPath != "" {
		out, err := sink.CreateCF32(*outPath)
		if err != nil {
			log.Fatalf("Output error: %v", err)
		}
		sinks = append(sinks, out)
	}
	if *playAudio {
		if err := audio.Init(); err != nil {
			log.Fatalf("Failed to initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
		out, err := sink.NewAudio(pcfg.SampleRate())
		if err != nil {
			log.Fatalf("Audio error: %v", err)
		}
		sinks = append(sinks, out)
	}
	if *serveAddr != "" {
		hub := server.NewWSHub()
		srv := server.NewServer(*serveAddr, hub)
		go func() {
			if err := srv.Start(); err != nil {
				log.Fatalf("Monitor server error: %v", err)
			}
		}()
		// One point per symbol, aligned past the filter group delay so
		// the scatter sits on the constellation grid.
		monitor := server.NewMonitor(hub, pcfg.SamplesPerSymbol, 512)
		monitor.Offset(pipeline.Kernel().GroupDelay())
		sinks = append(sinks, monitor)
	}
	counter := &sink.Counter{}
	sinks = append(sinks, counter)
	out := sink.NewFunnel(sinks...)
	defer out.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Interrupted, stopping...")
		cancel()
	}()

	log.Printf("Modulating %s: k=%d L=%d β=%g span=%d differential=%v",
		*inPath, pcfg.BitsPerSymbol, pcfg.SamplesPerSymbol, pcfg.RollOff,
		pcfg.FilterSpan, pcfg.Differential)
	if pcfg.SymbolRate > 0 {
		log.Printf("Symbol rate %.0f Sym/s, output sample rate %.0f S/s",
			pcfg.SymbolRate, pcfg.SampleRate())
	}

	n, err := pipeline.Run(ctx, out.Write)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Modulation error: %v", err)
	}
	log.Printf("Done: %d samples, average power %.3f", n, counter.AvgPower())
}
