// Package settlement consumes match results from Kafka and settles the matching wagers.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sportsbook/apperr"
	"sportsbook/models"
	"sportsbook/service"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// MessageReader is the subset of *kafka.Reader the consumer needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader builds a consumer-group reader for the results topic
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// ResultMessage is the payload published by the results feed
type ResultMessage struct {
	WagerID string             `json:"wagerId"`
	Result  models.WagerStatus `json:"result"`
}

// Outcomes reported to OnMessage
const (
	OutcomeSettled  = "settled"
	OutcomeSkipped  = "skipped"
	OutcomeInvalid  = "invalid"
	OutcomeRetrying = "retrying"
)

// Consumer settles wagers from result messages. Each message is committed
// only after it was settled or found to need no action.
type Consumer struct {
	reader     MessageReader
	settlement service.SettlementService

	readBackoff  time.Duration
	retryBackoff time.Duration

	OnMessage func(outcome string)
}

// NewConsumer creates a consumer reading from reader
func NewConsumer(reader MessageReader, settlement service.SettlementService) *Consumer {
	return &Consumer{
		reader:       reader,
		settlement:   settlement,
		readBackoff:  500 * time.Millisecond,
		retryBackoff: time.Second,
	}
}

// Run consumes until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	log.Info("Settlement consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Warn("Failed to read result message")
			if !sleep(ctx, c.readBackoff) {
				return ctx.Err()
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithFields(log.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err,
			}).Warn("Failed to commit result message")
		}
	}
}

// process settles one message, retrying transient failures until ctx ends.
// It returns an error only when ctx was cancelled.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	result, err := decodeResult(msg.Value)
	if err != nil {
		log.WithFields(log.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"error":     err,
		}).Warn("Discarding invalid result message")
		c.report(OutcomeInvalid)
		return nil
	}

	for {
		wager, err := c.settlement.SettleWager(ctx, result.WagerID, result.Result)
		if err == nil {
			log.WithFields(log.Fields{
				"wagerID": wager.ID,
				"status":  wager.Status,
				"payout":  wager.PotentialPayout.StringFixed(2),
			}).Info("Settled wager from result feed")
			c.report(OutcomeSettled)
			return nil
		}

		switch {
		case errors.Is(err, apperr.ErrAlreadyResolved), errors.Is(err, apperr.ErrNotFound):
			log.WithFields(log.Fields{
				"wagerID": result.WagerID,
				"reason":  apperr.Message(err),
			}).Info("Skipping result message")
			c.report(OutcomeSkipped)
			return nil
		case errors.Is(err, apperr.ErrValidation):
			log.WithFields(log.Fields{
				"wagerID": result.WagerID,
				"error":   err,
			}).Warn("Discarding invalid result message")
			c.report(OutcomeInvalid)
			return nil
		}

		log.WithFields(log.Fields{
			"wagerID": result.WagerID,
			"error":   err,
		}).Error("Failed to settle wager, retrying")
		c.report(OutcomeRetrying)
		if !sleep(ctx, c.retryBackoff) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) report(outcome string) {
	if c.OnMessage != nil {
		c.OnMessage(outcome)
	}
}

func decodeResult(value []byte) (*ResultMessage, error) {
	var result ResultMessage
	if err := json.Unmarshal(value, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result message: %w", err)
	}
	if result.WagerID == "" {
		return nil, errors.New("result message has no wagerId")
	}
	if !models.ValidID(result.WagerID) {
		return nil, fmt.Errorf("wagerId %q is not a valid id", result.WagerID)
	}
	if !result.Result.IsSettled() {
		return nil, fmt.Errorf("result %q is not won or lost", result.Result)
	}
	return &result, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
