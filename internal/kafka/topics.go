package kafka

import (
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// TopicScanLog carries every scan attempt and admin action, keyed by
	// ticket id so per-ticket history stays ordered within a partition.
	TopicScanLog = "admission.scans.log"
	// TopicTicketLifecycle carries issued/cancelled/transferred events.
	TopicTicketLifecycle = "admission.tickets.lifecycle"
)

// EnsureTopicsExist creates the admission topics if the broker doesn't have
// them yet. Safe to call on every startup.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
		} else {
			log.Printf("Created topic: %s", topic)
		}
	}

	// Give the broker a moment to settle newly created topics.
	time.Sleep(1 * time.Second)
	return nil
}
