// Package livefeed subscribes to the plant MQTT broker for realtime sensor
// readings and keeps a small in-memory buffer per machine. Readings fan out
// to websocket subscribers registered through Subscribe.
package livefeed

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"go-pdm-maintenance-ui/internal/config"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

const qos = 0

// Feed is the MQTT-backed realtime readings buffer.
type Feed struct {
	broker  string
	topic   string
	bufSize int
	client  pahomqtt.Client

	mu     sync.Mutex
	latest map[string]pdm.Reading
	buffer map[string][]pdm.Reading

	subMu sync.Mutex
	subs  map[chan pdm.Reading]struct{}
}

// New builds a feed from configuration. Connect is deferred to Start so the
// service can boot while the broker is down.
func New(cfg config.Config) *Feed {
	if !cfg.LiveEnabled {
		return nil
	}
	f := &Feed{
		broker:  cfg.LiveBroker,
		topic:   cfg.LiveTopic,
		bufSize: cfg.LiveBuffer,
		latest:  map[string]pdm.Reading{},
		buffer:  map[string][]pdm.Reading{},
		subs:    map[chan pdm.Reading]struct{}{},
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.LiveBroker).
		SetClientID(cfg.LiveClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.LiveUser != "" {
		opts.SetUsername(cfg.LiveUser).SetPassword(cfg.LivePassword)
	}
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		if err := f.subscribe(c); err != nil {
			log.Printf("livefeed: %v", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Printf("livefeed: connection lost err=%v", err)
	})

	f.client = pahomqtt.NewClient(opts)
	return f
}

func (f *Feed) Enabled() bool {
	return f != nil
}

// Start connects to the broker. Subscription happens in the on-connect
// handler so it survives reconnects.
func (f *Feed) Start() error {
	if token := f.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", f.broker, token.Error())
	}
	return nil
}

func (f *Feed) Stop() {
	if f == nil || f.client == nil {
		return
	}
	f.client.Disconnect(250)
}

// Connected reports broker connectivity for the status panel.
func (f *Feed) Connected() bool {
	return f != nil && f.client != nil && f.client.IsConnectionOpen()
}

func (f *Feed) Broker() string {
	if f == nil {
		return ""
	}
	return f.broker
}

func (f *Feed) subscribe(client pahomqtt.Client) error {
	token := client.Subscribe(f.topic, qos, f.onMessage)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", f.topic, token.Error())
	}
	log.Printf("livefeed: subscribed to %s QoS=%d", f.topic, qos)
	return nil
}

// TopicToEquipmentID extracts the machine id from "equipment/{id}/readings".
func TopicToEquipmentID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "equipment" || parts[2] != "readings" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (f *Feed) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	equipmentID, ok := TopicToEquipmentID(msg.Topic())
	if !ok {
		log.Printf("livefeed: invalid topic %q", msg.Topic())
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.Printf("livefeed: invalid json topic=%s err=%v", msg.Topic(), err)
		return
	}

	ts := time.Now().UTC()
	if raw, ok := payload["timestamp"]; ok {
		if parsed, err := parseTime(raw); err == nil && parsed != nil {
			ts = *parsed
		} else {
			log.Printf("livefeed: invalid time %v topic=%s using now", raw, msg.Topic())
		}
	}

	reading := pdm.Reading{
		Timestamp:   ts.Format(time.RFC3339),
		EquipmentID: equipmentID,
		Sensors:     map[string]any{},
	}
	for k, v := range payload {
		if k == "timestamp" || k == "equipment_id" {
			continue
		}
		reading.Sensors[k] = v
	}

	f.store(reading)
	f.broadcast(reading)
}

func (f *Feed) store(reading pdm.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[reading.EquipmentID] = reading
	buf := append(f.buffer[reading.EquipmentID], reading)
	if len(buf) > f.bufSize {
		buf = buf[len(buf)-f.bufSize:]
	}
	f.buffer[reading.EquipmentID] = buf
}

// Latest returns the newest reading per machine, or for one machine when
// equipmentID is set.
func (f *Feed) Latest(equipmentID string) []pdm.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()

	if equipmentID != "" {
		if reading, ok := f.latest[equipmentID]; ok {
			return []pdm.Reading{reading}
		}
		return nil
	}

	out := make([]pdm.Reading, 0, len(f.latest))
	for _, reading := range f.latest {
		out = append(out, reading)
	}
	return out
}

// Recent returns buffered readings for one machine, oldest first.
func (f *Feed) Recent(equipmentID string) []pdm.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := f.buffer[equipmentID]
	out := make([]pdm.Reading, len(buf))
	copy(out, buf)
	return out
}

// Subscribe registers a fan-out channel. Slow subscribers drop readings
// instead of blocking the broker callback.
func (f *Feed) Subscribe() chan pdm.Reading {
	ch := make(chan pdm.Reading, 16)
	f.subMu.Lock()
	f.subs[ch] = struct{}{}
	f.subMu.Unlock()
	return ch
}

func (f *Feed) Unsubscribe(ch chan pdm.Reading) {
	f.subMu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.subMu.Unlock()
}

func (f *Feed) broadcast(reading pdm.Reading) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- reading:
		default:
		}
	}
}

// parseTime accepts RFC3339 or unix seconds, as devices publish both.
func parseTime(v any) (*time.Time, error) {
	switch val := v.(type) {
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return nil, fmt.Errorf("empty time")
		}
		if parsed, err := time.Parse(time.RFC3339, val); err == nil {
			return &parsed, nil
		}
		if secs, err := strconv.ParseInt(val, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			return &t, nil
		}
		return nil, fmt.Errorf("unrecognized time %q", val)
	case float64:
		t := time.Unix(int64(val), 0).UTC()
		return &t, nil
	default:
		return nil, fmt.Errorf("unrecognized time type %T", v)
	}
}
