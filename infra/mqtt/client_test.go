package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
	if _, err := NewClientOptions(Config{}); err == nil {
		t.Fatalf("expected error without broker")
	}
}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestPublisherRecordSchedule(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "/team/", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if len(mc.subscribed) != 1 || mc.subscribed[0].topic != "team/cmd/replan" || mc.subscribed[0].qos != 1 {
		t.Fatalf("unexpected subscriptions %+v", mc.subscribed)
	}
	if !mc.opts.WillEnabled || mc.opts.WillTopic != "team/status" || !mc.opts.WillRetained {
		t.Fatalf("will options incorrect")
	}
	if err := pub.RecordSchedule(coremetrics.RunSummary{RunID: "r1", Method: "paced", AssignedSlots: 7}); err != nil {
		t.Fatalf("record: %v", err)
	}
	last := mc.published[len(mc.published)-1]
	if last.topic != "team/plan/paced" || !last.retained || last.qos != 1 {
		t.Fatalf("unexpected publish %+v", last)
	}
	var got coremetrics.RunSummary
	if err := json.Unmarshal(last.payload.([]byte), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.RunID != "r1" || got.AssignedSlots != 7 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestPublisherRecordPlanFailure(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := pub.RecordPlanFailure(coremetrics.PlanFailure{Reason: "bad", Time: time.Unix(0, 0)}); err != nil {
		t.Fatalf("record: %v", err)
	}
	last := mc.published[len(mc.published)-1]
	if last.topic != "slotplan/failures" || last.retained {
		t.Fatalf("unexpected publish %+v", last)
	}
}

func TestPublisherReplanCommand(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	var reasons []string
	pub.SetReplanHandler(func(r string) { reasons = append(reasons, r) })
	pub.handleReplan(nil, mockMessage{[]byte(`{"reason":"new project"}`)})
	pub.handleReplan(nil, mockMessage{nil})
	pub.handleReplan(nil, mockMessage{[]byte(`not json`)})
	if len(reasons) != 2 || reasons[0] != "new project" || reasons[1] != "mqtt" {
		t.Fatalf("unexpected reasons %v", reasons)
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	before := len(mc.published)
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}
	if err := pub.RecordSchedule(coremetrics.RunSummary{Method: "paced"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mc.published)-before != 2 {
		t.Fatalf("expected retries")
	}

	mc.publishErrs = []error{fmt.Errorf("down"), fmt.Errorf("down")}
	if err := pub.RecordSchedule(coremetrics.RunSummary{Method: "paced"}); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestDisconnectPublishesOffline(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	pub.Disconnect()
	last := mc.published[len(mc.published)-1]
	if last.topic != "slotplan/status" || last.payload != "offline" || !last.retained {
		t.Fatalf("unexpected publish %+v", last)
	}
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  any
}

// mockClient implements paho.Client for tests
type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, published{topic, qos, retained, payload})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
