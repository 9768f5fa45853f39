package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/config"
	"github.com/jd3nn1s/forzadash/forwarder"
	"github.com/jd3nn1s/forzadash/homeassistant"
	"github.com/jd3nn1s/forzadash/listener"
	"github.com/jd3nn1s/forzadash/liveview"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var testMode = flag.Bool("testmode", false, "generate test packets on the udp port")
var printTelemetry = flag.Bool("print-telemetry", false, "print telemetry to stdout")
var envDir = flag.String("env", ".", "directory containing the .env file")

const (
	testModeInterval = 50 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*envDir)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid log level: ", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	discovery := homeassistant.DefaultDiscovery()
	if cfg.DiscoveryFile != "" {
		if discovery, err = homeassistant.LoadDiscoveryFile(cfg.DiscoveryFile); err != nil {
			log.Fatal("unable to load discovery file: ", err)
		}
	}
	discovery.Fill(cfg.DeviceUIDPrefix, homeassistant.Device{
		Identifiers:  cfg.DeviceIdentifiers,
		Manufacturer: cfg.DeviceManufacturer,
		Model:        cfg.DeviceModel,
		Name:         cfg.DeviceName,
		SWVersion:    cfg.DeviceSWVersion,
	})
	reduced, err := discovery.Metrics()
	if err != nil {
		log.Fatal("invalid discovery entities: ", err)
	}

	sink, err := homeassistant.NewSink(homeassistant.Config{
		BrokerURL:      cfg.MQTTBrokerURL,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
		PublishTimeout: cfg.MQTTPublishTimeout,
		StateTimeout:   cfg.MQTTStateTimeout,
		Discovery:      discovery,
	})
	if err != nil {
		log.Fatal("unable to create mqtt sink: ", err)
	}
	defer sink.Close()
	if err := sink.Connect(ctx); err != nil {
		log.Fatal("unable to connect to mqtt broker: ", err)
	}
	if err := sink.Register(); err != nil {
		log.Fatal("unable to register discovery entities: ", err)
	}

	view := liveview.NewServer()
	defer view.Close()

	registry := prometheus.NewRegistry()
	dispatcherCfg := forzadash.DispatcherConfig{
		Publisher:  sink,
		LiveView:   view,
		Reduced:    reduced,
		Registerer: registry,
	}
	if *printTelemetry {
		dispatcherCfg.OnMetrics = func(m *forzadash.Metrics) {
			fmt.Printf("%+v\n", m.Values)
		}
	}
	dispatcher := forzadash.NewDispatcher(dispatcherCfg)

	group, ctx := errgroup.WithContext(ctx)

	if cfg.ForwardConfig != "" {
		relay, err := forwarder.NewUDPForwarder(cfg.ForwardConfig)
		if err != nil {
			log.Fatal("unable to load UDP forwarder: ", err)
		}
		defer relay.Close()
		dispatcher.AddForwarder(relay)
		group.Go(func() error {
			return ignoreCanceled(relay.Start(ctx))
		})
	}

	udp := listener.NewUDPListener(cfg.UDPPort, dispatcher)
	group.Go(func() error {
		return ignoreCanceled(forzadash.Retry(ctx, udp))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", view)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}
	group.Go(func() error {
		log.WithField("addr", server.Addr).Info("serving live view")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if *testMode {
		self, err := forwarder.NewUDPForwarderFromConfig(forwarder.UDPConfig{
			Server: "127.0.0.1",
			Port:   cfg.UDPPort,
		})
		if err != nil {
			log.Fatal("unable to create test mode forwarder: ", err)
		}
		defer self.Close()
		group.Go(func() error {
			return ignoreCanceled(self.Start(ctx))
		})
		group.Go(func() error {
			return ignoreCanceled(forzadash.RunTestMode(ctx, self, testModeInterval))
		})
	}

	if err := group.Wait(); err != nil {
		log.Fatal("stopped with error: ", err)
	}
	log.Info("stopped")
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}
