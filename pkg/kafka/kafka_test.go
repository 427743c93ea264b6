package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type payload struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"id":"c1","source":"news"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got.ID != "c1" || got.Source != "news" {
		t.Errorf("decoded %+v", got)
	}
}

func TestDecodeJSONFailureIsPermanent(t *testing.T) {
	_, err := DecodeJSON[payload]([]byte(`{not json`))
	if !errors.Is(err, ErrPermanent) {
		t.Errorf("err = %v, want ErrPermanent", err)
	}
}

func TestPingWithoutBrokers(t *testing.T) {
	if err := Ping(context.Background(), nil); err == nil {
		t.Fatal("expected error with no brokers")
	}
}

func TestHeader(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{
		{Key: "other", Value: []byte("x")},
		{Key: requestIDHeader, Value: []byte("req-1")},
	}}
	if got := header(msg, requestIDHeader); got != "req-1" {
		t.Errorf("header = %q, want req-1", got)
	}
	if got := header(kafka.Message{}, requestIDHeader); got != "" {
		t.Errorf("header on bare message = %q", got)
	}
}
