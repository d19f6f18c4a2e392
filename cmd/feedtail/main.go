// feedtail tails the message lifecycle feed and prints each record. It is a
// verification tool for checking that sent/delivered/seen records reach the
// broker with the expected shape.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated broker list")
	topic := flag.String("topic", "message-events", "lifecycle feed topic")
	group := flag.String("group", "feedtail", "consumer group id")
	flag.Parse()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(*brokers, ","),
		Topic:   *topic,
		GroupID: *group,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Fatal(err)
		}

		var record struct {
			Type       string   `json:"type"`
			UserID     string   `json:"user_id"`
			MessageIDs []string `json:"message_ids"`
			Kind       string   `json:"kind"`
			OccurredAt string   `json:"occurred_at"`
		}
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			log.Printf("skipping malformed record at offset %d: %v", msg.Offset, err)
			continue
		}

		log.Printf("%s user=%s ids=%v kind=%s at=%s",
			record.Type, record.UserID, record.MessageIDs, record.Kind, record.OccurredAt)
	}
}
