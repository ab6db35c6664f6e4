package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*widget]()
	require.NoError(t, reg.Register("basic", func(conf map[string]any) (*widget, error) {
		var c struct {
			Name string `json:"name"`
		}
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &widget{Name: c.Name}, nil
	}))

	w, err := reg.Create(ModuleConfig{Type: "basic", Conf: map[string]any{"name": "a"}})
	require.NoError(t, err)
	assert.Equal(t, "a", w.Name)
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry[*widget]()
	_, err := reg.Create(ModuleConfig{Type: "missing"})
	require.Error(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry[*widget]()
	f := func(map[string]any) (*widget, error) { return &widget{}, nil }
	require.NoError(t, reg.Register("dup", f))
	require.Error(t, reg.Register("dup", f))
}

func TestRegisterNilFactory(t *testing.T) {
	reg := NewRegistry[*widget]()
	require.Error(t, reg.Register("nil", nil))
}
