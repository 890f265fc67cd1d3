// Package ingest bridges MQTT-connected IMU devices into the gait pipeline.
// Each device publishing to <prefix>/imu/<device> gets its own analysis
// session; computed metrics are published back to <prefix>/metrics/<device>.
// The bridge is optional: with no broker configured it never starts.
package ingest

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"headgait-stream/gait"
)

// Config holds the bridge settings.
type Config struct {
	Broker          string `yaml:"broker"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	UseTLS          bool   `yaml:"use_tls"`
	InsecureSkipTLS bool   `yaml:"insecure_skip_tls"`
	// TopicPrefix roots both the subscription (<prefix>/imu/+) and the
	// metrics publications (<prefix>/metrics/<device>).
	TopicPrefix string `yaml:"topic_prefix"`
	// IdleTimeoutSec closes a device session that has been silent this long.
	IdleTimeoutSec int `yaml:"idle_timeout_sec"`
}

// DefaultConfig returns the bridge defaults. Broker is empty, which leaves
// the bridge disabled until one is configured.
func DefaultConfig() Config {
	return Config{
		Port:           1883,
		TopicPrefix:    "headgait",
		IdleTimeoutSec: 120,
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Bridge maintains one analysis session per publishing device.
type Bridge struct {
	config Config
	proc   *gait.Processor
	client mqtt.Client

	mu      sync.Mutex
	devices map[string]*deviceSession

	done chan struct{}
	wg   sync.WaitGroup
}

type deviceSession struct {
	analyzer *gait.Analyzer
	lastSeen time.Time
}

// NewBridge creates a stopped bridge around the shared processor.
func NewBridge(cfg Config, proc *gait.Processor) *Bridge {
	return &Bridge{
		config:  cfg,
		proc:    proc,
		devices: make(map[string]*deviceSession),
		done:    make(chan struct{}),
	}
}

// Start connects to the broker and begins serving device sessions.
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions()

	protocol := "tcp"
	if b.config.UseTLS {
		protocol = "tls"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", protocol, b.config.Broker, b.config.Port)
	opts.AddBroker(brokerURL)

	clientID := fmt.Sprintf("headgait-bridge-%d", time.Now().Unix())
	opts.SetClientID(clientID)

	if b.config.Username != "" {
		opts.SetUsername(b.config.Username)
		opts.SetPassword(b.config.Password)
	}
	if b.config.UseTLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: b.config.InsecureSkipTLS})
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = b.onConnect
	opts.OnConnectionLost = b.onConnectionLost

	b.client = mqtt.NewClient(opts)

	log.Printf("[MQTT] Connecting to %s as %s...", brokerURL, clientID)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("MQTT connect timeout")
	}
	if token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}

	b.wg.Add(1)
	go b.reapIdle()
	return nil
}

// Stop disconnects and closes every device session.
func (b *Bridge) Stop() {
	close(b.done)
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}

	// Closing the analyzers ends their metrics publishers; only then can the
	// wait below return.
	b.mu.Lock()
	for device, sess := range b.devices {
		sess.analyzer.Close()
		delete(b.devices, device)
	}
	b.mu.Unlock()

	b.wg.Wait()
	log.Printf("[MQTT] Bridge stopped")
}

func (b *Bridge) imuTopic() string { return b.config.TopicPrefix + "/imu/+" }

func (b *Bridge) metricsTopic(device string) string {
	return b.config.TopicPrefix + "/metrics/" + device
}

func (b *Bridge) onConnect(client mqtt.Client) {
	log.Printf("[MQTT] Connected successfully")

	topic := b.imuTopic()
	token := client.Subscribe(topic, 0, b.onSample)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("[MQTT] Subscribe timeout for %s", topic)
		return
	}
	if token.Error() != nil {
		log.Printf("[MQTT] Subscribe error: %v", token.Error())
		return
	}
	log.Printf("[MQTT] Subscribed to %s", topic)
}

func (b *Bridge) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] Connection lost: %v (will auto-reconnect)", err)
}

// onSample routes one inbound IMU record to its device session, creating the
// session on first sight. Malformed records are dropped the same way the
// WebSocket path drops them.
func (b *Bridge) onSample(client mqtt.Client, msg mqtt.Message) {
	device := deviceFromTopic(msg.Topic())
	if device == "" {
		return
	}

	sample, ok, err := gait.ParseSample(msg.Payload())
	if err != nil {
		log.Printf("[MQTT] device %s: ignoring unparsable record: %v", device, err)
		return
	}
	if !ok {
		return
	}

	b.session(device).analyzer.Push(sample)
}

// session returns the device's session, creating it (and its metrics
// publisher) on demand.
func (b *Bridge) session(device string) *deviceSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sess, ok := b.devices[device]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	sess := &deviceSession{
		analyzer: gait.NewAnalyzer(b.proc),
		lastSeen: time.Now(),
	}
	b.devices[device] = sess
	log.Printf("[MQTT] device %s: session started", device)

	b.wg.Add(1)
	go b.publishMetrics(device, sess.analyzer)
	return sess
}

// publishMetrics forwards each snapshot to the device's metrics topic until
// the analyzer shuts down.
func (b *Bridge) publishMetrics(device string, analyzer *gait.Analyzer) {
	defer b.wg.Done()
	topic := b.metricsTopic(device)
	for snap := range analyzer.Snapshots() {
		payload, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		if b.client != nil && b.client.IsConnected() {
			b.client.Publish(topic, 0, false, payload)
		}
	}
}

// reapIdle closes sessions for devices that stopped publishing.
func (b *Bridge) reapIdle() {
	defer b.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-time.Duration(b.config.IdleTimeoutSec) * time.Second)

		b.mu.Lock()
		var stale []*deviceSession
		for device, sess := range b.devices {
			if sess.lastSeen.Before(cutoff) {
				stale = append(stale, sess)
				delete(b.devices, device)
				log.Printf("[MQTT] device %s: session idle, closing", device)
			}
		}
		b.mu.Unlock()

		for _, sess := range stale {
			sess.analyzer.Close()
		}
	}
}

// DeviceCount reports the number of live device sessions.
func (b *Bridge) DeviceCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.devices)
}

// deviceFromTopic extracts the device segment of <prefix>/imu/<device>.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}
