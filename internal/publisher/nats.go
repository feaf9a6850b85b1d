// Package publisher streams corridor position updates over NATS so
// downstream signal controllers can react in real time.
package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/margdarshak/backend/internal/domain"
)

type NATSPublisher struct {
	nc      *nats.Conn
	metrics PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("margdarshak-backend"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

type PositionMessage struct {
	RequestID string    `json:"requestId"`
	VehicleID string    `json:"vehicleId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	SpeedMps  float64   `json:"speedMps,omitempty"`
	Bearing   float64   `json:"bearing,omitempty"`
	Status    string    `json:"status"`
}

// PublishPosition pushes one update on corridor.<vehicle>.<request>.
func (p *NATSPublisher) PublishPosition(req *domain.CorridorRequest) error {
	msg := PositionMessage{
		RequestID: req.RequestID,
		VehicleID: req.VehicleID,
		Timestamp: time.Now(),
		Lat:       req.LastPosition.Lat,
		Lon:       req.LastPosition.Lon,
		Status:    string(req.Status),
	}
	if req.LastPosition.SpeedMps != nil {
		msg.SpeedMps = *req.LastPosition.SpeedMps
	}
	if req.LastPosition.BearingDeg != nil {
		msg.Bearing = *req.LastPosition.BearingDeg
	}

	subject := fmt.Sprintf("corridor.%s.%s", subjectToken(req.VehicleID), subjectToken(req.RequestID))
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
