package rabbitmq

import (
	"fmt"

	"quickbite/internal/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchange: every accepted driver position fans out to the platform.
	if err := ch.ExchangeDeclare(contracts.ExchangeLocationFanout, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeLocationFanout, err)
	}

	// 2. Queues
	queues := []string{
		contracts.QueueLocationUpdatesOrders,
		contracts.QueueLocationUpdatesNotifications,
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	// 3. Bindings (fanout ignores routing keys)
	for _, q := range queues {
		if err := ch.QueueBind(q, "", contracts.ExchangeLocationFanout, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", q, contracts.ExchangeLocationFanout, err)
		}
	}

	return nil
}
