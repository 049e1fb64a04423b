package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestRegistry(t *testing.T) {
	RegisterService[greeter]("greeter", english{})
	t.Cleanup(func() { UnregisterService("greeter") })

	g, err := GetService[greeter]("greeter")
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())
	assert.Contains(t, ListServices(), "greeter")

	_, err = GetService[CatalogService]("greeter")
	assert.ErrorContains(t, err, "wrong type")

	UnregisterService("greeter")
	_, err = GetService[greeter]("greeter")
	assert.ErrorContains(t, err, "not found")
}
