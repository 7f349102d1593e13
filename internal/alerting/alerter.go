// internal/alerting/alerter.go
package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skyconnect-match/internal/common/aws"
	"skyconnect-match/internal/common/config"
	"skyconnect-match/internal/common/logger"
)

// Define interfaces for mocking
type EmailSender interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

type TopicPublisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string) error
}

// Service raises an ops alert when the backend chain keeps getting
// exhausted. Once the number of exhaustions inside the window reaches
// the threshold it publishes a single degradation alert, then holds
// for a cooldown so a sustained outage produces one page, not hundreds.
//
// The alert is delivered synchronously with its own short deadline.
// Delivery failures are logged and swallowed; alerting never changes
// what a caller receives.
type Service struct {
	config *Config
	email  EmailSender
	topic  TopicPublisher
	logger logger.Logger

	mu          sync.Mutex
	exhaustions []time.Time
	lastAlert   time.Time
}

func New(cfg *Config, email EmailSender, topic TopicPublisher, log logger.Logger) *Service {
	return &Service{
		config: cfg,
		email:  email,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{
			"component": "alerting",
		}),
	}
}

// NewFromConfig wires the service against real AWS clients. When
// alerting is disabled no clients are created and the returned service
// is a no-op.
func NewFromConfig(ctx context.Context, cfg config.AlertingConfig, log logger.Logger) (*Service, error) {
	c := FromAlertingConfig(cfg)
	if !c.Enabled {
		return New(c, nil, nil, log), nil
	}

	var email EmailSender
	var topic TopicPublisher

	if c.TopicARN != "" {
		snsClient, err := aws.NewSNSClient(ctx, c.Region)
		if err != nil {
			return nil, fmt.Errorf("create SNS client: %w", err)
		}
		topic = snsClient
	}
	if c.FromEmail != "" && c.ToEmail != "" {
		sesClient, err := aws.NewSESClient(ctx, c.Region)
		if err != nil {
			return nil, fmt.Errorf("create SES client: %w", err)
		}
		email = sesClient
	}

	return New(c, email, topic, log), nil
}

// RecordExhaustion notes that every backend in the chain failed for one
// request. It decides under the lock whether this crossing warrants an
// alert, so concurrent requests can never double-fire one.
func (s *Service) RecordExhaustion(ctx context.Context) {
	if s == nil || !s.config.Enabled {
		return
	}

	now := time.Now()

	s.mu.Lock()
	s.exhaustions = append(s.exhaustions, now)
	s.pruneLocked(now)
	count := len(s.exhaustions)

	coolingDown := !s.lastAlert.IsZero() && now.Sub(s.lastAlert) < s.config.Cooldown
	fire := count >= s.config.Threshold && !coolingDown
	if fire {
		s.lastAlert = now
		s.exhaustions = s.exhaustions[:0]
	}
	s.mu.Unlock()

	if fire {
		s.publish(count)
	}
}

// pruneLocked drops exhaustions that fell out of the window. Caller
// holds s.mu.
func (s *Service) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.config.Window)
	kept := s.exhaustions[:0]
	for _, ts := range s.exhaustions {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.exhaustions = kept
}

func (s *Service) publish(count int) {
	// The request context may already be cancelled or nearly out of
	// time. The alert still has to go out, bounded by its own deadline.
	sendCtx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	subject := "SkyConnect match service degraded: response backends exhausted"
	body := fmt.Sprintf(
		"All response backends were exhausted %d times within the last %s. "+
			"Users are receiving fallback messages instead of generated responses. "+
			"Check the /status/backends endpoint for per-backend failure counts.",
		count, s.config.Window,
	)

	delivered := false

	if s.topic != nil && s.config.TopicARN != "" {
		if err := s.topic.PublishToTopic(sendCtx, s.config.TopicARN, subject, body); err != nil {
			s.logger.Error("degradation alert publish failed", map[string]interface{}{
				"topicArn": s.config.TopicARN,
				"error":    err.Error(),
			})
		} else {
			delivered = true
		}
	}

	if s.email != nil && s.config.FromEmail != "" && s.config.ToEmail != "" {
		if err := s.email.SendPlainEmail(sendCtx, s.config.FromEmail, s.config.ToEmail, subject, body); err != nil {
			s.logger.Error("degradation alert email failed", map[string]interface{}{
				"to":    s.config.ToEmail,
				"error": err.Error(),
			})
		} else {
			delivered = true
		}
	}

	s.logger.Warn("degradation alert raised", map[string]interface{}{
		"exhaustions": count,
		"window":      s.config.Window.String(),
		"delivered":   delivered,
	})
}
