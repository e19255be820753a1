package stream

import (
	"Go2NetEuclid/internal/alerter"
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/internal/notification"
	"Go2NetEuclid/internal/probe"
	"Go2NetEuclid/internal/report"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported by the detector.
const HealthService = "euclid.Detector"

// Service connects a Detector to NATS and serves its HTTP and gRPC endpoints.
type Service struct {
	cfg      *config.Config
	detector *Detector
	sub      *probe.Subscriber

	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

// NewService builds the detector, its writers and the optional alerter.
func NewService(cfg *config.Config) (*Service, error) {
	sinks, err := report.NewWriters(cfg.Writers)
	if err != nil {
		return nil, err
	}
	writers := make([]model.WindowWriter, len(sinks))
	for i, s := range sinks {
		writers[i] = s
	}

	var alertr *alerter.Alerter
	if cfg.Alerter.Enabled {
		if cfg.SMTP.Host != "" {
			notifier, err := notification.NewEmailNotifier(cfg.SMTP)
			if err != nil {
				return nil, fmt.Errorf("failed to create notifier: %w", err)
			}
			alertr, err = alerter.NewAlerter(&cfg.Alerter, cfg.Stream.Classifier.Name, notifier)
			if err != nil {
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			log.Println("Alerter enabled and initialized.")
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	detector, err := NewDetector(cfg.Stream, Options{
		Publisher: sub.Conn(),
		Writers:   writers,
		Alerter:   alertr,
	})
	if err != nil {
		sub.Close()
		return nil, err
	}
	sub.OnDecodeError = func(error) { detector.Metrics().DecodeError() }

	return &Service{cfg: cfg, detector: detector, sub: sub}, nil
}

// Detector returns the underlying detector.
func (s *Service) Detector() *Detector {
	return s.detector
}

// Start starts the detector, subscribes to the record subject and starts the servers.
func (s *Service) Start() error {
	s.detector.Start()

	if err := s.sub.Start(s.detector.HandleBatch); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	if addr := s.cfg.Stream.GRPCAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		s.grpcServer = grpc.NewServer()
		s.health = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
		s.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		go func() {
			log.Printf("gRPC health server starting on %s", addr)
			if err := s.grpcServer.Serve(lis); err != nil {
				log.Printf("ERROR: gRPC server stopped: %v", err)
			}
		}()
	}

	if addr := s.cfg.Stream.ListenAddr; addr != "" {
		s.httpServer = &http.Server{
			Addr:    addr,
			Handler: NewHTTPHandler(s.detector),
		}
		go func() {
			log.Printf("HTTP status server starting on %s", addr)
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("ERROR: HTTP server error: %v", err)
			}
		}()
	}
	return nil
}

// Stop unsubscribes, drains the detector and shuts the servers down.
func (s *Service) Stop() {
	log.Println("Service stopping...")
	if s.health != nil {
		s.health.Shutdown()
	}

	if err := s.sub.Unsubscribe(); err != nil {
		log.Printf("Warning: failed to unsubscribe: %v", err)
	}
	s.detector.Stop()
	s.sub.Close()

	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
	log.Println("Service stopped.")
}
