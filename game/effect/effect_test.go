package effect

import (
	"testing"
	"time"

	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vitals struct{ hp, max float64 }

func (v *vitals) Heal(n float64) float64 {
	before := v.hp
	v.hp = min(v.max, v.hp+n)
	return v.hp - before
}

func (v *vitals) Damage(n float64) float64 {
	before := v.hp
	v.hp = max(0, v.hp-n)
	return before - v.hp
}

func catalog() Catalog {
	return Catalog{
		"might":  {ID: "might", Modifiers: []item.StatModifier{{Stat: item.StatAttack, Kind: item.ModifierFlat, Value: 5}}, MaxStacks: 3},
		"weaken": {ID: "weaken", Modifiers: []item.StatModifier{{Stat: item.StatAttack, Kind: item.ModifierFlat, Value: -2}}, Negative: true},
	}
}

func TestHealOverTime_PulsesPerInterval(t *testing.T) {
	l := NewList(nil)
	require.True(t, l.AddTimedEffect(item.EffectHealOverTime, 10, 3*time.Second))
	v := &vitals{hp: 50, max: 100}

	var total float64
	for i := 0; i < 6; i++ {
		for _, p := range l.Tick(500*time.Millisecond, v) {
			total += p.Amount
		}
	}
	assert.Equal(t, 30.0, total)
	assert.Equal(t, 80.0, v.hp)
	assert.Zero(t, l.Len())
}

func TestDrainOverTime_IsNegativeAndClamps(t *testing.T) {
	l := NewList(nil)
	require.True(t, l.AddTimedEffect(item.EffectDrainOverTime, 30, 10*time.Second))
	v := &vitals{hp: 50, max: 100}
	l.Tick(2*time.Second, v)
	assert.Equal(t, 0.0, v.hp)

	e, ok := l.Get(string(item.EffectDrainOverTime))
	require.True(t, ok)
	assert.True(t, e.Negative)
	assert.Equal(t, 8*time.Second, e.Remaining)
}

func TestAddTimedEffect_Rejects(t *testing.T) {
	l := NewList(nil)
	assert.False(t, l.AddTimedEffect(item.EffectHeal, 10, time.Second))
	assert.False(t, l.AddTimedEffect(item.EffectHealOverTime, 0, time.Second))
	assert.False(t, l.AddTimedEffect(item.EffectHealOverTime, 10, 0))
}

func TestAddTimedEffect_Refreshes(t *testing.T) {
	l := NewList(nil)
	var changes []ChangeKind
	l.Events().Subscribe("test", func(c Change) { changes = append(changes, c.Kind) })
	l.AddTimedEffect(item.EffectHealOverTime, 10, 3*time.Second)
	l.Tick(2*time.Second, nil)
	l.AddTimedEffect(item.EffectHealOverTime, 20, 3*time.Second)

	e, _ := l.Get(string(item.EffectHealOverTime))
	assert.Equal(t, 3*time.Second, e.Remaining)
	assert.Equal(t, 20.0, e.Magnitude)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []ChangeKind{Added, Refreshed}, changes)
}

func TestApplyBuff_StacksAndBonuses(t *testing.T) {
	l := NewList(catalog())
	assert.False(t, l.ApplyBuff("unknown", time.Second))

	for i := 0; i < 5; i++ {
		require.True(t, l.ApplyBuff("might", 10*time.Second))
	}
	e, ok := l.Get("might")
	require.True(t, ok)
	assert.Equal(t, 3, e.Stacks)
	assert.Equal(t, 15.0, l.Bonuses().Get(item.StatAttack).Flat)

	l.ApplyBuff("weaken", 10*time.Second)
	assert.Equal(t, 13.0, l.Bonuses().Get(item.StatAttack).Flat)
}

func TestRemoveNegativeEffects(t *testing.T) {
	l := NewList(catalog())
	l.ApplyBuff("might", time.Minute)
	l.ApplyBuff("weaken", time.Minute)
	l.AddTimedEffect(item.EffectDrainOverTime, 1, time.Minute)
	l.AddTimedEffect(item.EffectHealOverTime, 1, time.Minute)

	var cleansed []string
	l.Events().Subscribe("test", func(c Change) {
		if c.Kind == Cleansed {
			cleansed = append(cleansed, c.ID)
		}
	})
	assert.Equal(t, 2, l.RemoveNegativeEffects())
	assert.ElementsMatch(t, []string{"weaken", string(item.EffectDrainOverTime)}, cleansed)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 0, l.RemoveNegativeEffects())
}

func TestTick_ExpiresBuffs(t *testing.T) {
	l := NewList(catalog())
	l.ApplyBuff("might", 2*time.Second)
	var expired []string
	l.Events().Subscribe("test", func(c Change) {
		if c.Kind == Expired {
			expired = append(expired, c.ID)
		}
	})
	assert.Empty(t, l.Tick(time.Second, nil))
	assert.Equal(t, 1, l.Len())
	l.Tick(5*time.Second, nil)
	assert.Zero(t, l.Len())
	assert.Equal(t, []string{"might"}, expired)
	assert.Empty(t, l.Bonuses())
	assert.Nil(t, l.Tick(0, nil))
}
