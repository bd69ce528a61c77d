package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"doc-intelligence-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, "test", logger.NewNopLogger())
	go hub.Run(ctx)
	return hub
}

func TestHub_SendToProject(t *testing.T) {
	hub := startHub(t)
	projectA, projectB := uuid.New(), uuid.New()

	a := &Client{Hub: hub, ProjectID: projectA, Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, ProjectID: projectB, Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool {
		return hub.ClientCount(projectA) == 1 && hub.ClientCount(projectB) == 1
	}, time.Second, 5*time.Millisecond)

	hub.SendToProject(projectA, "embedding_progress", map[string]int{"processed": 3})

	select {
	case frame := <-a.Send:
		var msg struct {
			Type      string         `json:"type"`
			ProjectID uuid.UUID      `json:"project_id"`
			Data      map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, "embedding_progress", msg.Type)
		assert.Equal(t, projectA, msg.ProjectID)
		assert.Equal(t, 3, msg.Data["processed"])
	case <-time.After(time.Second):
		t.Fatal("client of project A got nothing")
	}

	assert.Empty(t, b.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	projectID := uuid.New()

	c := &Client{Hub: hub, ProjectID: projectID, Send: make(chan []byte, 1)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount(projectID) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ClientCount(projectID) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	projectID := uuid.New()

	c := &Client{Hub: hub, ProjectID: projectID, Send: make(chan []byte)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount(projectID) == 1 }, time.Second, 5*time.Millisecond)

	hub.SendToProject(projectID, "ping", nil)

	assert.Eventually(t, func() bool { return hub.ClientCount(projectID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, "test", logger.NewNopLogger())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	projectID := uuid.New()
	registered := &Client{Hub: hub, ProjectID: projectID, Send: make(chan []byte, 1)}
	hub.Register(registered)
	require.Eventually(t, func() bool { return hub.ClientCount(projectID) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	returned := make(chan struct{})
	late := &Client{Hub: hub, ProjectID: projectID, Send: make(chan []byte, 1)}
	go func() {
		hub.Unregister(registered)
		hub.Register(late)
		hub.Unregister(late)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked after shutdown")
	}

	assert.Equal(t, 0, hub.ClientCount(projectID))
	_, open := <-late.Send
	assert.False(t, open)
	_, open = <-registered.Send
	assert.False(t, open)
}
