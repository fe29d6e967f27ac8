package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chat-export-bot/internal/domain"
)

func TestExcelRenderer_Render(t *testing.T) {
	exportedAt := time.Date(2024, 3, 12, 10, 5, 0, 0, time.UTC)
	tables := map[domain.Category][]domain.Row{
		domain.CategoryChannels: {
			domain.NewRow(domain.IdentityRecord{Identifier: "t.me/news", FullName: "t.me/news", HasChannel: domain.Yes}, exportedAt),
		},
		domain.CategoryParticipants: {
			domain.NewRow(domain.IdentityRecord{Identifier: "@john", Username: "@john", FullName: "John Doe", RegisteredAt: "2023-01-01T00:00:00"}, exportedAt),
			domain.NewRow(domain.IdentityRecord{Identifier: "jane", FullName: "Jane"}, exportedAt),
		},
		domain.CategoryMentions: {},
	}

	data, err := NewExcelRenderer().Render(tables)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Участники", "Упоминания", "Каналы"}, f.GetSheetList())

	rows, err := f.GetRows("Участники")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Дата экспорта", "Username", "Имя и фамилия", "Описание", "Дата регистрации", "Наличие канала"}, rows[0])
	assert.Equal(t, []string{"2024-03-12T10:05:00Z", "@john", "John Doe", "", "2023-01-01T00:00:00", "Неизвестно"}, rows[1])

	rows, err = f.GetRows("Упоминания")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = f.GetRows("Каналы")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t.me/news", rows[1][2])
	assert.Equal(t, "Да", rows[1][5])
}

func TestExcelRenderer_UnknownCategory(t *testing.T) {
	data, err := NewExcelRenderer().Render(map[domain.Category][]domain.Row{
		domain.CategoryParticipants: nil,
		"bots":                      nil,
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Участники", "Bots"}, f.GetSheetList())
}

func TestWorkbookFileName(t *testing.T) {
	name := WorkbookFileName(time.Date(2024, 3, 12, 10, 5, 9, 0, time.UTC))
	assert.Equal(t, "participants_20240312_100509.xlsx", name)
}
