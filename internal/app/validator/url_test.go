package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAcceptable(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://google.com", true},
		{"http://google.com/path?q=1", true},
		{"HTTPS://Example.org", true},
		{"google.com", true},
		{"sub.example.co.uk/a/b", true},
		{"localhost:8080", true},
		{"ftp://files.example.com", false},
		{"ftp://", false},
		{"javascript://alert(1)", false},
		{"not a url", false},
		{"https://", false},
		{"http://exa mple.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAcceptable(tt.input))
		})
	}
}

func TestIsAcceptable_PrefixEquivalence(t *testing.T) {
	inputs := []string{
		"google.com",
		"example.com/path",
		"not a url",
		"a",
		"host:99999999",
		"example.com/?next=https://other.com",
		"[::1]:80",
	}
	for _, s := range inputs {
		assert.Equal(t, IsAcceptable("https://"+s), IsAcceptable(s), s)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "https://google.com", Normalize("google.com"))
	assert.Equal(t, "http://google.com", Normalize("http://google.com"))
	assert.Equal(t, "ftp://host", Normalize("ftp://host"))
	assert.Equal(t, "https://example.com/?u=http://x", Normalize("example.com/?u=http://x"))
}

func TestCheckInput_Order(t *testing.T) {
	err := CheckInput("   ")
	require.NotNil(t, err)
	assert.Equal(t, MsgURLRequired, err.Message)

	err = CheckInput("ftp://example.com")
	require.NotNil(t, err)
	assert.Equal(t, MsgURLInvalid, err.Message)

	long := "https://example.com/" + strings.Repeat("a", MaxURLLength)
	err = CheckInput(long)
	require.NotNil(t, err)
	assert.Equal(t, MsgURLTooLong, err.Message)
	assert.Equal(t, "max", err.Rule)

	assert.Nil(t, CheckInput("  example.com  "))
}

func TestCheckInput_LengthBoundary(t *testing.T) {
	prefix := "https://example.com/"
	exact := prefix + strings.Repeat("a", MaxURLLength-len(prefix))
	require.Len(t, exact, MaxURLLength)

	assert.Nil(t, CheckInput(exact))
	assert.NotNil(t, CheckInput(exact+"a"))
}

func TestCheckInput_LengthCountsSchemeAddedByNormalize(t *testing.T) {
	host := "example.com/"
	fits := host + strings.Repeat("a", MaxURLLength-len("https://")-len(host))
	require.Equal(t, MaxURLLength, Length(Normalize(fits)))
	assert.Nil(t, CheckInput(fits))

	for n := MaxURLLength - 7; n <= MaxURLLength; n++ {
		raw := host + strings.Repeat("a", n-len(host))
		require.Len(t, raw, n)
		err := CheckInput(raw)
		require.NotNil(t, err, "length %d", n)
		assert.Equal(t, MsgURLTooLong, err.Message)
	}
}

func TestLength_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 3, Length("abc"))
	assert.Equal(t, 1, Length("é"))
	assert.Equal(t, 2, Length("😀"))

	prefix := "https://example.com/"
	emoji := strings.Repeat("😀", (MaxURLLength-len(prefix))/2)
	require.Equal(t, MaxURLLength, Length(prefix+emoji))
	assert.Nil(t, CheckInput(prefix+emoji))
	assert.NotNil(t, CheckInput(prefix+emoji+"a"))
}
