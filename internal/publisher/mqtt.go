// Package publisher mirrors committed snapshots to an MQTT broker as
// retained messages, one topic per record plus a summary topic.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"energydash/internal/core"
	"energydash/internal/ports"
)

// Config holds the broker settings.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

const (
	defaultTopicPrefix = "energydash"
	publishTimeout     = 10 * time.Second
	qos                = 1
)

// client is the subset of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher writes snapshots to MQTT.
type Publisher struct {
	client      client
	topicPrefix string

	mu        sync.Mutex
	published map[string]struct{}
}

var _ ports.SnapshotMirror = (*Publisher)(nil)

// New connects to the broker.
func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "energydash"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
	}

	return newPublisher(c, cfg.TopicPrefix), nil
}

func newPublisher(c client, prefix string) *Publisher {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Publisher{
		client:      c,
		topicPrefix: prefix,
		published:   make(map[string]struct{}),
	}
}

// brokerURL accepts both host:port and full URLs.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Name implements ports.SnapshotMirror.
func (p *Publisher) Name() string { return "mqtt" }

// RecordTopic returns the retained topic of one record.
func (p *Publisher) RecordTopic(id string) string {
	return p.topicPrefix + "/records/" + id
}

// SummaryTopic returns the retained summary topic.
func (p *Publisher) SummaryTopic() string {
	return p.topicPrefix + "/summary"
}

// SummaryPayload is the JSON body of the summary topic.
type SummaryPayload struct {
	CommitID          int64     `json:"commitId"`
	CommittedAt       time.Time `json:"committedAt"`
	Records           int       `json:"records"`
	TotalConsumption  float64   `json:"totalConsumption"`
	TotalCost         float64   `json:"totalCost"`
	TotalSaved        float64   `json:"totalSaved"`
	TotalMoneySaved   float64   `json:"totalMoneySaved"`
	AverageSavings    float64   `json:"averageSavings"`
	PerformanceIsGood bool      `json:"performanceIsGood"`
}

// Mirror publishes every record and the summary as retained messages.
// Records published by an earlier snapshot but missing from this one get
// an empty retained message, which clears them on the broker.
func (p *Publisher) Mirror(ctx context.Context, commit core.CommitInfo, records []core.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]struct{}, len(records))
	for _, r := range records {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", r.ID, err)
		}
		if err := p.publish(ctx, p.RecordTopic(r.ID), body); err != nil {
			return err
		}
		current[r.ID] = struct{}{}
	}

	for id := range p.published {
		if _, ok := current[id]; ok {
			continue
		}
		if err := p.publish(ctx, p.RecordTopic(id), []byte{}); err != nil {
			return err
		}
	}
	p.published = current

	s := core.Summarize(records)
	body, err := json.Marshal(SummaryPayload{
		CommitID:          commit.ID,
		CommittedAt:       commit.CommittedAt,
		Records:           s.Records,
		TotalConsumption:  s.TotalConsumption,
		TotalCost:         s.TotalCost,
		TotalSaved:        s.TotalSaved,
		TotalMoneySaved:   s.TotalMoneySaved,
		AverageSavings:    s.AverageSavings,
		PerformanceIsGood: s.PerformanceIsGood,
	})
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return p.publish(ctx, p.SummaryTopic(), body)
}

func (p *Publisher) publish(ctx context.Context, topic string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := p.client.Publish(topic, qos, true, body)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
