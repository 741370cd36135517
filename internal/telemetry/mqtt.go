package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Status — сообщение MQTT, публикуется в начале каждой минуты.
type Status struct {
	Standard     string    `json:"standard"`
	MinuteStart  time.Time `json:"minute_start"`
	TransmitTime time.Time `json:"transmit_time"`
	CarrierHz    float64   `json:"carrier_hz"`
	// MaxLatenessMs — наибольшее опоздание секунды за предыдущую минуту
	MaxLatenessMs float64 `json:"max_lateness_ms"`
	Seconds       int     `json:"seconds_sent"`
}

// MQTT публикует статус передачи; публикация не ждёт подтверждения брокера.
type MQTT struct {
	standard string
	topic    string
	client   mqtt.Client
	publish  func(topic string, payload []byte)

	carrierHz   float64
	maxLateness time.Duration
	seconds     int
}

// NewMQTT подключается к брокеру cfg.Broker.
func NewMQTT(cfg config.MQTTConfig, standard string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Error("mqtt: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	m := newMQTT(cfg.Topic, standard, func(topic string, payload []byte) {
		client.Publish(topic, 0, false, payload)
	})
	m.client = client
	return m, nil
}

func newMQTT(topic, standard string, publish func(string, []byte)) *MQTT {
	return &MQTT{standard: standard, topic: topic, publish: publish}
}

// Close отключается от брокера.
func (m *MQTT) Close() {
	if m.client != nil {
		m.client.Disconnect(250)
	}
}

func (m *MQTT) CarrierStarted(_, achieved float64, err error) {
	if err == nil {
		m.carrierHz = achieved
	}
}

func (m *MQTT) MinuteStarted(minuteStart, transmitTime time.Time) {
	payload, err := json.Marshal(Status{
		Standard:      m.standard,
		MinuteStart:   minuteStart.UTC(),
		TransmitTime:  transmitTime,
		CarrierHz:     m.carrierHz,
		MaxLatenessMs: float64(m.maxLateness) / float64(time.Millisecond),
		Seconds:       m.seconds,
	})
	m.maxLateness, m.seconds = 0, 0
	if err != nil {
		logger.Error("mqtt: %v", err)
		return
	}
	m.publish(m.topic, payload)
}

func (m *MQTT) SecondSent(_ int, _ timecode.Modulation, lateness time.Duration) {
	m.seconds++
	if lateness > m.maxLateness {
		m.maxLateness = lateness
	}
}
