package outbox

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestProducerConfiguresWriters(t *testing.T) {
	p := NewKafkaProducer([]string{"broker:9092"}, 3*time.Second)

	writer := p.writerForTopic("activity_events")
	if writer.Topic != "activity_events" {
		t.Fatalf("unexpected topic %q", writer.Topic)
	}
	if writer.WriteTimeout != 3*time.Second {
		t.Fatalf("expected 3s write timeout got %s", writer.WriteTimeout)
	}
	if writer.RequiredAcks != kafka.RequireAll {
		t.Fatalf("expected RequireAll acks got %v", writer.RequiredAcks)
	}

	if again := p.writerForTopic("activity_events"); again != writer {
		t.Fatal("expected writer to be reused per topic")
	}
}

func TestProducerDefaultTimeout(t *testing.T) {
	p := NewKafkaProducer([]string{"broker:9092"}, 0)
	if p.writeTimeout != 10*time.Second {
		t.Fatalf("expected 10s default got %s", p.writeTimeout)
	}
}

func TestProducerCloseClearsWriters(t *testing.T) {
	p := NewKafkaProducer([]string{"broker:9092"}, time.Second)
	first := p.writerForTopic("profile_stats")

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if second := p.writerForTopic("profile_stats"); second == first {
		t.Fatal("expected a fresh writer after Close")
	}
}
