package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"alumni_events/config"
	"alumni_events/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to the broker and consumes notification events,
// sending the corresponding emails. It runs a reconnect loop with backoff
// and never returns under normal operation; run it in its own goroutine.
func StartConsumer() {
	backoff := time.Second
	for {
		c, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: dial broker failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(c); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(c *amqp.Connection) error {
	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(emailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(emailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev Event
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("notify-consumer: bad message: %v", err)
			_ = d.Nack(false, false) // drop, do not requeue a poison message
			continue
		}
		dispatch(ev)
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// dispatch sends the email for one event. Errors are logged and swallowed.
func dispatch(ev Event) {
	data := utils.RegistrationEmailData{
		Name:        ev.Name,
		EventTitle:  ev.EventTitle,
		EventDate:   ev.EventDate,
		Venue:       ev.Venue,
		TicketType:  ev.TicketType,
		PublicCode:  ev.PublicCode,
		Position:    ev.Position,
		OfferExpiry: ev.OfferExpiry,
		DetailLink:  config.Config("APP_URL") + "/registrations/" + ev.PublicCode,
	}

	var err error
	switch ev.Type {
	case TypeRegistrationConfirmed:
		err = utils.SendConfirmationEmail(ev.To, data, ev.QRPNG)
	case TypeWaitlistPlaced:
		err = utils.SendWaitlistEmail(ev.To, data)
	case TypeWaitlistPromoted:
		err = utils.SendPromotionEmail(ev.To, data)
	default:
		log.Printf("notify-consumer: unknown event type %q", ev.Type)
		return
	}

	if err != nil {
		log.Printf("notify-consumer: send %s to %s failed: %v", ev.Type, ev.To, err)
	}
}
