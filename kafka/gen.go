package kafka

import (
	"encoding/json"
	"log"
	"time"

	"tripkit/fake"
	"tripkit/trip"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// GenMain holds the execution state for the trip record generator, which
// produces fake raw trip rows to a kafka topic as JSON.
type GenMain struct {
	Hosts   []string      `help:"Kafka cluster: comma separated list of host:port."`
	Topic   string        `help:"Kafka topic to produce to."`
	Service string        `help:"Service family of the generated rows (yellow, green, fhv)."`
	Month   string        `help:"Month (YYYY-MM) the generated trips fall in."`
	Count   int           `help:"Number of records to produce. 0 means keep going until killed."`
	Seed    int64         `help:"Random seed for the generator."`
	Rate    time.Duration `help:"Pause between records."`
}

// NewGenMain returns a new GenMain.
func NewGenMain() *GenMain {
	return &GenMain{
		Hosts:   []string{"localhost:9092"},
		Topic:   "trips",
		Service: string(trip.Green),
		Month:   trip.MonthOf(time.Now().UTC()).String(),
		Seed:    1,
		Rate:    time.Second,
	}
}

// jsonRow implements the sarama.Encoder interface for a raw row using json.
type jsonRow map[string]string

// Encode marshals the row to json.
func (r jsonRow) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Length returns the length of the marshalled json.
func (r jsonRow) Length() int {
	bytes, _ := r.Encode()
	return len(bytes)
}

// Run runs the generator.
func (m *GenMain) Run() error {
	service, err := trip.ParseService(m.Service)
	if err != nil {
		return err
	}
	month, err := trip.ParseMonth(m.Month)
	if err != nil {
		return err
	}

	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(m.Hosts, conf)
	if err != nil {
		return errors.Wrap(err, "getting new producer")
	}
	defer producer.Close()

	gen := fake.NewGenerator(service, m.Seed, time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; m.Count == 0 || i < m.Count; i++ {
		_, _, err := producer.SendMessage(&sarama.ProducerMessage{
			Topic: m.Topic,
			Value: jsonRow(gen.Row()),
		})
		if err != nil {
			return errors.Wrap(err, "sending message")
		}
		if i > 0 && i%1000 == 0 {
			log.Printf("produced %d records to %s", i, m.Topic)
		}
		time.Sleep(m.Rate)
	}
	return nil
}
