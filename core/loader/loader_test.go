package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("LoadsEnabledOnly", func(t *testing.T) {
		on := &stubFeature{name: "review", enabled: true}
		off := &stubFeature{name: "other", enabled: false}

		mgr := NewManager(nil)
		mgr.Register(on)
		mgr.Register(off)

		assert.NoError(t, mgr.LoadAll(fiber.New()))
		assert.True(t, on.loaded)
		assert.False(t, off.loaded)
		assert.Len(t, mgr.Features(), 2)
	})

	t.Run("PropagatesError", func(t *testing.T) {
		mgr := NewManager(nil)
		mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})

		err := mgr.LoadAll(fiber.New())
		assert.ErrorContains(t, err, "failed to load feature broken")
	})

	t.Run("RejectsDuplicates", func(t *testing.T) {
		mgr := NewManager(nil)
		mgr.Register(&stubFeature{name: "review", enabled: true})
		mgr.Register(&stubFeature{name: "review", enabled: true})

		assert.ErrorContains(t, mgr.LoadAll(fiber.New()), "registered twice")
	})
}
