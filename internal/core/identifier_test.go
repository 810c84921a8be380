package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordBoundaryChars(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", ""},
		{"foo", "f"},
		{"fooBar", "fb"},
		{"FooBar", "fb"},
		{"foo_bar", "fb"},
		{"_private", "p"},
		{"__init__", "i"},
		{"kebab-case-name", "kcn"},
		{"$scope", "s"},
		{"vec3Add", "va"},
		{"HTTPServer", "h"},
		{"get_userName", "gun"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, wordBoundaryChars(tt.text))
		})
	}
}

func TestNewIdentifier(t *testing.T) {
	id := newIdentifier(7, "GetValue")
	assert.Equal(t, IdentifierID(7), id.ID())
	assert.Equal(t, "GetValue", id.Text())
	assert.Equal(t, "getvalue", id.Lower())
	assert.Equal(t, "gv", id.WordBoundaryChars())
	assert.False(t, id.IsLower())
	assert.Equal(t, "GetValue", id.String())

	assert.True(t, newIdentifier(8, "get_value").IsLower())
}
