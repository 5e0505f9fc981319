package stage_test

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/novaris-game/novaris/stage"
)

func TestManagerStartsAtInit(t *testing.T) {
	m := stage.NewManager()
	assert.Equal(t, stage.Init, m.Current())
}

func TestCompareAndSwap(t *testing.T) {
	m := stage.NewManager()

	assert.Check(t, m.CompareAndSwap(stage.Init, stage.Starting))
	assert.Equal(t, stage.Starting, m.Current())

	// A second swap from the old stage must lose.
	assert.Check(t, !m.CompareAndSwap(stage.Init, stage.Starting))
	assert.Equal(t, stage.Starting, m.Current())
}

func TestNotifyOnStage(t *testing.T) {
	m := stage.NewManager()
	ch := m.NotifyOnStage(stage.Running)

	select {
	case <-ch:
		t.Fatal("channel closed before stage was reached")
	default:
	}

	m.Store(stage.Running)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("channel not closed after stage was reached")
	}
}

func TestNotifyOnCurrentStageIsImmediate(t *testing.T) {
	m := stage.NewManager()
	m.Store(stage.Running)

	select {
	case <-m.NotifyOnStage(stage.Running):
	case <-time.After(time.Second):
		t.Fatal("channel for current stage was not closed")
	}
}
