//go:build !no_containers

package test

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/infra/mqtt"
	"github.com/kilianp07/slotplan/test/util"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
}

func TestPublisherAgainstMosquitto(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Fatalf("start mosquitto: %v", err)
	}
	defer cleanup()

	pub, err := mqtt.NewPublisher(mqtt.Config{Broker: broker, ClientID: "planner", QoS: 1})
	require.NoError(t, err)
	defer pub.Disconnect()

	replans := make(chan string, 4)
	pub.SetReplanHandler(func(reason string) { replans <- reason })

	sum := coremetrics.RunSummary{
		RunID:         "run-1",
		Method:        "paced",
		Weeks:         4,
		AssignedSlots: 30,
		Projects:      []coremetrics.ProjectSummary{{Name: "alpha", AssignedSlots: 30, Status: "complete"}},
	}
	require.NoError(t, pub.RecordSchedule(sum))

	// The summary is retained, so a late subscriber still receives it.
	got := make(chan coremetrics.RunSummary, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("dashboard"))
	tok := sub.Connect()
	tok.Wait()
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("slotplan/plan/paced", 1, func(_ paho.Client, msg paho.Message) {
		var s coremetrics.RunSummary
		if err := json.Unmarshal(msg.Payload(), &s); err == nil {
			select {
			case got <- s:
			default:
			}
		}
	})
	tok.Wait()
	require.NoError(t, tok.Error())

	select {
	case s := <-got:
		assert.Equal(t, "run-1", s.RunID)
		assert.Equal(t, 30, s.AssignedSlots)
		require.Len(t, s.Projects, 1)
		assert.Equal(t, "alpha", s.Projects[0].Name)
	case <-ctx.Done():
		t.Fatalf("retained plan not received")
	}

	// The publisher subscribes on connect; repeat the command until it lands.
	require.Eventually(t, func() bool {
		sub.Publish("slotplan/cmd/replan", 1, false, `{"reason":"dashboard"}`).Wait()
		select {
		case reason := <-replans:
			return reason == "dashboard"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)
}
