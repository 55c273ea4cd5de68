package cookies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebViewParser_Parse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expect map[string]string
		count  int
	}{
		{
			name:   "single pair",
			raw:    "remember_user_token=abc123",
			expect: map[string]string{"remember_user_token": "abc123"},
			count:  1,
		},
		{
			name:   "attributes are treated as pairs",
			raw:    "remember_user_token=abc123; path=/",
			expect: map[string]string{"remember_user_token": "abc123", "path": "/"},
			count:  2,
		},
		{
			name:   "whitespace and empty segments",
			raw:    "  a=1 ;; b = 2 ; ",
			expect: map[string]string{"a": "1", "b": "2"},
			count:  2,
		},
		{
			name:   "value containing equals",
			raw:    "sig=abc==; x=y",
			expect: map[string]string{"sig": "abc==", "x": "y"},
			count:  2,
		},
		{
			name:   "quoted value",
			raw:    `q="quoted"`,
			expect: map[string]string{"q": "quoted"},
			count:  1,
		},
		{
			name:   "missing equals gives empty value",
			raw:    "flag; a=1",
			expect: map[string]string{"flag": "", "a": "1"},
			count:  2,
		},
		{
			name:  "nameless segments are skipped",
			raw:   "=orphan; ;",
			count: 0,
		},
		{
			name:  "empty string",
			raw:   "",
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WebViewParser{}.Parse(tt.raw, "jianshu.io")
			require.Len(t, got, tt.count)

			for _, c := range got {
				assert.Equal(t, "jianshu.io", c.Domain)
				assert.Equal(t, "/", c.Path)
				want, ok := tt.expect[c.Name]
				require.True(t, ok, "unexpected cookie %q", c.Name)
				assert.Equal(t, want, c.Value)
			}
		})
	}
}

func TestWebViewParser_PreservesOrder(t *testing.T) {
	got := WebViewParser{}.Parse("c=3; a=1; b=2", "jianshu.io")
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "a", got[1].Name)
	assert.Equal(t, "b", got[2].Name)
}

func TestFind(t *testing.T) {
	parsed := WebViewParser{}.Parse("remember_user_token=first; other=x; remember_user_token=second", "jianshu.io")

	value, ok := Find(parsed, "remember_user_token")
	require.True(t, ok)
	assert.Equal(t, "second", value, "last match wins")

	_, ok = Find(parsed, "Remember_User_Token")
	assert.False(t, ok, "name match is case sensitive")

	_, ok = Find(nil, "remember_user_token")
	assert.False(t, ok)
}
