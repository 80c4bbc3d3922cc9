package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserCommand(t *testing.T) {
	t.Setenv("BROWSER", "")
	const u = "https://login.microsoftonline.com/t/oauth2/v2.0/authorize?a=1&b=2"

	tests := []struct {
		goos string
		want []string
	}{
		{"darwin", []string{"open", u}},
		{"windows", []string{"rundll32", "url.dll,FileProtocolHandler", u}},
		{"linux", []string{"xdg-open", u}},
		{"freebsd", []string{"xdg-open", u}},
	}

	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			assert.Equal(t, tc.want, browserCommand(tc.goos, u).Args)
		})
	}
}

func TestBrowserCommand_BrowserEnv(t *testing.T) {
	t.Setenv("BROWSER", "firefox")
	assert.Equal(t, []string{"firefox", "https://example.com"}, browserCommand("linux", "https://example.com").Args)
}
