package language

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectKnownLanguages(t *testing.T) {
	t.Parallel()

	d := NewDetector()
	cases := []struct {
		name string
		text string
		want string
	}{
		{"english posting", "We are looking for a senior backend engineer with strong experience building distributed systems and services.", "en"},
		{"english job title", "Senior Backend Engineer role requiring distributed systems experience", "en"},
		{"french posting", "Nous recherchons un ingénieur logiciel expérimenté pour rejoindre notre équipe et développer des services distribués.", "fr"},
		{"german posting", "Wir suchen einen erfahrenen Softwareentwickler, der unser Team beim Aufbau verteilter Systeme unterstützt.", "de"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := d.Detect(tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDetectRejectsDegenerateInput(t *testing.T) {
	t.Parallel()

	d := NewDetector()
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"digits", "12345 !!!"},
		{"two chars", "a1"},
		{"single english word", "Hello"},
		{"single french word", "Bonjour"},
		{"keyboard noise", "asdf qwer"},
		{"short ambiguous phrase", "Bonjour, je souhaite postuler"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code, err := d.Detect(tc.text)
			var detErr *DetectionError
			require.True(t, errors.As(err, &detErr), "expected DetectionError for %q, got %q, %v", tc.text, code, err)
			require.Empty(t, code)
		})
	}
}

func TestDetectOrDefault(t *testing.T) {
	t.Parallel()

	d := NewDetector()
	require.Equal(t, DefaultCode, d.DetectOrDefault(""))
	require.Equal(t, DefaultCode, d.DetectOrDefault("42"))
	require.Equal(t, DefaultCode, d.DetectOrDefault("Hello"))
	require.Equal(t, DefaultCode, d.DetectOrDefault("asdf qwer"))
}
