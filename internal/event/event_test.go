package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStringEncoding(t *testing.T) {
	assert.Equal(t, "a", Char("a").String())
	assert.Equal(t, "Key.esc", Named("esc").String())
	assert.Equal(t, "Button.left", Button("left").String())
	assert.Equal(t, "mouse_wheel", Wheel().String())
}

func TestParseKeyRoundTrip(t *testing.T) {
	keys := []Key{
		Char("a"),
		Char("7"),
		Named("esc"),
		Named("shift_l"),
		Button("middle"),
		Wheel(),
	}
	for _, k := range keys {
		assert.Equal(t, k, ParseKey(k.String()), "round trip of %q", k.String())
	}
}

func TestParseKeyBestEffort(t *testing.T) {
	// Strings with no known prefix are taken as character keys rather
	// than rejected.
	k := ParseKey("vk_0xFF")
	assert.Equal(t, KindChar, k.Kind)
	assert.Equal(t, "vk_0xFF", k.Name)
}

func TestKeyZero(t *testing.T) {
	assert.True(t, Key{}.Zero())
	assert.False(t, Char("a").Zero())
	assert.False(t, Named("esc").Zero())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "click", Click.String())
	assert.Equal(t, "keyDown", KeyDown.String())
	assert.Equal(t, "keyUp", KeyUp.String())
	assert.Equal(t, "scroll", Scroll.String())
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{Click, KeyDown, KeyUp, Scroll} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	got, err := ParseType("teleport")
	assert.Error(t, err)
	assert.Equal(t, Invalid, got)
}
