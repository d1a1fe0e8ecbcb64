// Package kafka provides a tripkit.Source over a Kafka topic of JSON trip
// records, plus a matching producer for generating traffic.
package kafka

import (
	"bytes"
	"encoding/json"
	"io"
	"log"

	"tripkit"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"github.com/pkg/errors"
)

// Source implements the tripkit.Source interface using kafka as a data
// source. Each message value must be one JSON object holding a raw trip
// record.
type Source struct {
	Hosts   []string
	Topics  []string
	Group   string
	MaxMsgs int
	numMsgs int

	consumer *cluster.Consumer
}

// NewSource gets a new Source with local defaults.
func NewSource() *Source {
	return &Source{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"trips"},
		Group:  "tripkit0",
	}
}

// Record returns the record decoded from the next kafka message, or io.EOF
// after MaxMsgs messages (if set).
func (s *Source) Record() (map[string]string, error) {
	if s.MaxMsgs > 0 {
		s.numMsgs++
		if s.numMsgs > s.MaxMsgs {
			return nil, io.EOF
		}
	}
	msg, ok := <-s.consumer.Messages()
	if !ok {
		return nil, errors.New("messages channel closed")
	}
	dec := json.NewDecoder(bytes.NewReader(msg.Value))
	dec.UseNumber()
	parsed := make(map[string]interface{})
	if err := dec.Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshaling json")
	}
	s.consumer.MarkOffset(msg, "") // mark message as processed
	return tripkit.StringRecord(parsed), nil
}

// Open initializes the kafka source.
func (s *Source) Open() error {
	// init (custom) config, enable errors and notifications
	sarama.Logger = log.New(io.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_10_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true

	var err error
	s.consumer, err = cluster.NewConsumer(s.Hosts, s.Group, s.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}

	// consume errors
	go func() {
		for err := range s.consumer.Errors() {
			log.Printf("Error: %s\n", err.Error())
		}
	}()

	// consume notifications
	go func() {
		for ntf := range s.consumer.Notifications() {
			log.Printf("Rebalanced: %+v\n", ntf)
		}
	}()
	return nil
}

// Close closes the underlying kafka consumer.
func (s *Source) Close() error {
	err := s.consumer.Close()
	return errors.Wrap(err, "closing kafka consumer")
}
