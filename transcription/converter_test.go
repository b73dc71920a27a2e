package transcription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type upperConverter struct{ err error }

func (u upperConverter) Convert(s string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return "[" + s + "]", nil
}

func newTestConverter(factory func(string) (textConverter, error)) *ScriptConverter {
	c := NewScriptConverter(nil)
	c.newConverter = factory
	return c
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		in      string
		profile string
		ok      bool
	}{
		{"traditional", "s2t", true},
		{" ZH-TW ", "s2twp", true},
		{"tw", "s2twp", true},
		{"zh-Hant", "s2t", true},
		{"simplified", "t2s", true},
		{"cn", "t2s", true},
		{"klingon", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		_, profile, ok := ResolveTarget(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.profile, profile, tc.in)
	}
}

func TestConvertUnknownTargetReturnsOriginal(t *testing.T) {
	c := newTestConverter(func(string) (textConverter, error) { return upperConverter{}, nil })
	out := c.Convert("台北", "klingon")
	assert.Equal(t, "台北", out.Text)
	assert.False(t, out.Converted())
	assert.Empty(t, out.Original)
}

func TestConvertKeepsOriginal(t *testing.T) {
	c := newTestConverter(func(string) (textConverter, error) { return upperConverter{}, nil })
	out := c.Convert("台湾", "Traditional")
	assert.True(t, out.Converted())
	assert.Equal(t, "[台湾]", out.Text)
	assert.Equal(t, "台湾", out.Original)
	assert.Equal(t, "traditional", out.Target)
}

func TestConvertLibraryUnavailableSkipsSilently(t *testing.T) {
	calls := 0
	c := newTestConverter(func(string) (textConverter, error) {
		calls++
		return nil, errors.New("dictionary missing")
	})
	for i := 0; i < 2; i++ {
		out := c.Convert("台湾", "traditional")
		assert.Equal(t, "台湾", out.Text)
		assert.False(t, out.Converted())
	}
	assert.Equal(t, 1, calls, "unavailable profile is not retried")
}

func TestConvertFailureReturnsOriginal(t *testing.T) {
	c := newTestConverter(func(string) (textConverter, error) { return upperConverter{err: errors.New("bad utf8")}, nil })
	out := c.Convert("台湾", "t")
	assert.Equal(t, "台湾", out.Text)
	assert.False(t, out.Converted())
}
