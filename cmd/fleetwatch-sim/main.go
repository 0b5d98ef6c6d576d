// cmd/fleetwatch-sim - simulated component for exercising the monitor
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type heartbeatPayload struct {
	ProcessExists bool   `json:"process_exists"`
	Timestamp     string `json:"timestamp"`
	DeclaredLevel *int   `json:"declared_level,omitempty"`
}

func main() {
	componentID := flag.String("id", "", "Component id to report as (required)")
	server := flag.String("server", "http://localhost:8080", "Monitor base URL")
	interval := flag.Duration("interval", 30*time.Second, "Heartbeat interval")
	level := flag.Int("level", 1, "Declared capability level (1-4, 0 to omit)")
	count := flag.Int("count", 0, "Number of heartbeats to send (0 = until interrupted)")
	dead := flag.Bool("dead", false, "Report process_exists=false")
	touch := flag.String("touch", "", "Comma-separated file paths to touch on every beat")
	flag.Parse()

	if *componentID == "" {
		fmt.Fprintln(os.Stderr, "missing required -id flag")
		flag.Usage()
		os.Exit(2)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.WithFields(logrus.Fields{
		"component": *componentID,
		"server":    *server,
		"interval":  *interval,
		"level":     *level,
	}).Info("Starting simulated component")

	sim := &simulator{
		componentID: *componentID,
		url:         fmt.Sprintf("%s/api/heartbeat/%s", strings.TrimRight(*server, "/"), *componentID),
		client:      &http.Client{Timeout: 5 * time.Second},
		level:       *level,
		dead:        *dead,
	}
	if *touch != "" {
		sim.touchPaths = strings.Split(*touch, ",")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sent := 0
	sim.beat()
	sent++

	for {
		if *count > 0 && sent >= *count {
			logrus.WithField("sent", sent).Info("Done")
			return
		}

		select {
		case sig := <-sigChan:
			logrus.WithField("signal", sig).Info("Stopping simulated component")
			return
		case <-ticker.C:
			sim.beat()
			sent++
		}
	}
}

type simulator struct {
	componentID string
	url         string
	client      *http.Client
	level       int
	dead        bool
	touchPaths  []string
}

func (s *simulator) beat() {
	payload := heartbeatPayload{
		ProcessExists: !s.dead,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if s.level >= 1 && s.level <= 4 {
		lvl := s.level
		payload.DeclaredLevel = &lvl
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode heartbeat")
		return
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Error("Heartbeat send failed")
		return
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Error("Heartbeat rejected")
		return
	}

	logrus.WithFields(logrus.Fields{
		"component": s.componentID,
		"level":     s.level,
	}).Info("Heartbeat sent")

	for _, path := range s.touchPaths {
		s.touchFile(strings.TrimSpace(path))
	}
}

// touchFile simulates an upstream process refreshing its output file.
func (s *simulator) touchFile(path string) {
	if path == "" {
		return
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", path).Error("Failed to touch file")
			return
		}
		f, err := os.Create(path)
		if err != nil {
			logrus.WithError(err).WithField("path", path).Error("Failed to create file")
			return
		}
		f.Close()
	}

	logrus.WithField("path", path).Debug("Touched file")
}
