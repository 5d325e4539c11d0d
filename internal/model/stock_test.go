package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistSetAndGet(t *testing.T) {
	var c Checklist

	for _, name := range ChecklistFlags {
		v, err := c.Get(name)
		require.NoError(t, err)
		assert.False(t, v)

		require.NoError(t, c.Set(name, true))
		v, err = c.Get(name)
		require.NoError(t, err)
		assert.True(t, v)
	}

	assert.Equal(t, len(ChecklistFlags), c.Count())
}

func TestChecklistUnknownFlag(t *testing.T) {
	var c Checklist

	err := c.Set("nope", true)
	assert.ErrorIs(t, err, ErrUnknownChecklistFlag)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownChecklistFlag)
}

func TestChecklistJSONNames(t *testing.T) {
	c := Checklist{MargemLiquida: true, DistanciaMedia200: true}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]bool
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, name := range ChecklistFlags {
		_, ok := decoded[name]
		assert.True(t, ok, "missing flag %s", name)
	}
	assert.True(t, decoded["margemLiquida"])
	assert.True(t, decoded["distanciaMedia200"])
}
