package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_RegistrationOrder(t *testing.T) {
	var b Bus[int]
	var got []string
	b.Subscribe("a", func(v int) { got = append(got, "a") })
	b.Subscribe("b", func(v int) { got = append(got, "b") })
	b.Subscribe("c", func(v int) { got = append(got, "c") })

	b.Publish(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestBus_UnsubscribeFunc(t *testing.T) {
	var b Bus[string]
	count := 0
	unsub := b.Subscribe("x", func(string) { count++ })
	b.Publish("one")
	unsub()
	unsub() // idempotent
	b.Publish("two")
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, b.Len())
}

func TestBus_UnsubscribeByName(t *testing.T) {
	var b Bus[int]
	b.Subscribe("ui", func(int) {})
	b.Subscribe("ui", func(int) {})
	b.Subscribe("audit", func(int) {})
	b.Unsubscribe("ui")
	assert.Equal(t, 1, b.Len())
}

func TestBus_SubscribeDuringPublish(t *testing.T) {
	var b Bus[int]
	late := 0
	b.Subscribe("first", func(int) {
		b.Subscribe("late", func(int) { late++ })
	})
	b.Publish(1)
	assert.Equal(t, 0, late, "handler added mid-publish waits for the next publish")
	b.Publish(2)
	assert.Equal(t, 1, late)
}
