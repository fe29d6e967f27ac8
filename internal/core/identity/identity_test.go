package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		fallbackID string
		fullName   string
		expected   string
	}{
		{"username имеет приоритет", "@Foo", "123", "Foo Bar", "@foo"},
		{"fallback id и имя", "", "123", "Foo Bar", "123:foo bar"},
		{"fallback id без имени", "", "user42", "", "user42:"},
		{"только имя", "", "", "Foo Bar", "foo bar"},
		{"ничего не известно", "", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildIdentifier(tt.username, tt.fallbackID, tt.fullName))
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "@john", NormalizeUsername("john"))
	assert.Equal(t, "@john", NormalizeUsername("  @john  "))
	assert.Equal(t, "@John", NormalizeUsername("John"))
	assert.Equal(t, "", NormalizeUsername("   "))
	assert.Equal(t, "", NormalizeUsername(""))
}

func TestIsDeletedAccount(t *testing.T) {
	assert.True(t, IsDeletedAccount("Deleted Account"))
	assert.True(t, IsDeletedAccount("deleted account"))
	assert.True(t, IsDeletedAccount("Удалённый аккаунт"))
	assert.True(t, IsDeletedAccount("Удаленный аккаунт"))
	assert.False(t, IsDeletedAccount("John Doe"))
	assert.False(t, IsDeletedAccount(""))
}

func TestExtractHandles(t *testing.T) {
	t.Run("упоминание и ссылка на канал", func(t *testing.T) {
		mentions, channels := ExtractHandles("Hello @validuser5 visit t.me/somechannel")
		assert.Equal(t, []string{"@validuser5"}, mentions)
		assert.Equal(t, []string{"t.me/somechannel"}, channels)
	})

	t.Run("короткий handle не захватывается", func(t *testing.T) {
		mentions, _ := ExtractHandles("ping @ab12 please")
		assert.Empty(t, mentions)
	})

	t.Run("регистр и схема ссылки", func(t *testing.T) {
		mentions, channels := ExtractHandles("@SomeUser see HTTPS://T.me/News_Channel and http://t.me/other")
		assert.Equal(t, []string{"@someuser"}, mentions)
		assert.Equal(t, []string{"t.me/news_channel", "t.me/other"}, channels)
	})

	t.Run("пустой текст", func(t *testing.T) {
		mentions, channels := ExtractHandles("")
		assert.Nil(t, mentions)
		assert.Nil(t, channels)
	})
}

func TestHandleFromHref(t *testing.T) {
	assert.Equal(t, "@someone", HandleFromHref("@SomeOne"))
	assert.Equal(t, "t.me/news", HandleFromHref("https://t.me/News"))
	assert.Equal(t, "t.me/news", HandleFromHref("t.me/news/123"))
	assert.Equal(t, "", HandleFromHref("https://example.com"))
	assert.Equal(t, "", HandleFromHref(""))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2023-01-01T00:00:00", "2023-01-01T00:00:00"},
		{" 2023-01-01T00:00:00 ", "2023-01-01T00:00:00"},
		{"2024-03-12T10:05:00Z", "2024-03-12T10:05:00Z"},
		{"2024-03-12T13:05:00+03:00", "2024-03-12T10:05:00Z"},
		{"03.12.2024 12:05:00", "2024-12-03T12:05:00"},
		{"2023-01-01T00:00:00.5", "2023-01-01T00:00:00.500000"},
		{"2024-01-01T10:00:05.500Z", "2024-01-01T10:00:05.500000Z"},
		{"not a date", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.input))
		})
	}
}

func TestParseDate(t *testing.T) {
	parsed, ok := ParseDate("03.12.2024 12:05:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 3, 12, 5, 0, 0, time.UTC), parsed)

	_, ok = ParseDate("31.31.2024")
	assert.False(t, ok)
}
