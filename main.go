package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"headgait-stream/gait"
	"headgait-stream/ingest"
	"headgait-stream/model"
	"headgait-stream/server"
)

func main() {
	configPath := flag.String("config", "headgait.yaml", "path to YAML config (missing file uses defaults)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	artifacts := model.Load(cfg.Models.ContactsPath, cfg.Models.SpeedPath)

	var contactModel gait.SequenceModel
	if artifacts.Contacts != nil {
		contactModel = artifacts.Contacts
	}
	var speedModel gait.SpeedModel
	if artifacts.Speed != nil {
		speedModel = artifacts.Speed
	}

	proc, err := gait.NewProcessor(cfg.Pipeline, contactModel, speedModel)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	srv := server.New(proc)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}

	var bridge *ingest.Bridge
	if cfg.MQTT.Enabled() {
		bridge = ingest.NewBridge(cfg.MQTT, proc)
		if err := bridge.Start(); err != nil {
			log.Printf("[WARN] MQTT bridge failed to start: %v", err)
			log.Printf("[WARN] Running without MQTT ingest")
			bridge = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("[Server] HeadGait streaming server listening on %s", httpServer.Addr)
	log.Printf("[Server] Pipeline: %.0f Hz, buffer %d, model-backed=%v",
		cfg.Pipeline.SamplingRate, cfg.Pipeline.BufferCapacity, proc.UsingModel())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("[Server] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if bridge != nil {
			bridge.Stop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Printf("[Server] Stopped cleanly")
}
