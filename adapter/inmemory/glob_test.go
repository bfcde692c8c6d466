package inmemory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"news.*", "news.tech", true},
		{"news.*", "news.", true},
		{"news.*", "news", false},
		{"news.*", "sports.tech", false},
		{"*", "anything", true},
		{"*", "", true},
		{"order.*.eu", "order.created.eu", true},
		{"order.*.eu", "order.created.us", false},
		{"h?llo", "hello", true},
		{"h?llo", "hallo", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hdllo", false},
		{`h\*llo`, "h*llo", true},
		{`h\*llo`, "hxllo", false},
		{`a\`, `a\`, true},
		{`a\`, "ab", false},
		{`\`, `\`, true},
		{"exact", "exact", true},
		{"exact", "exactly", false},
		{"[", "x", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.pattern, tt.name), func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.name))
		})
	}
}
