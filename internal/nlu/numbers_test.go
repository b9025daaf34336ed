package nlu

import (
	"testing"

	"voxcmd/pkg/model"

	"github.com/stretchr/testify/assert"
)

func TestDigitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"добавь молоко", "добавь молоко"},
		{"количество пять", "количество 5"},
		{"двадцать пять", "25"},
		{"сто двадцать три", "123"},
		{"одиннадцать", "11"},
		{"две тысячи двадцать четыре", "2024"},
		{"тысяча", "1000"},
		{"пять тысяч сто", "5100"},
		{"пять пять", "5 5"},
		{"одиннадцать два", "11 2"},
		{"двадцать тридцать", "20 30"},
		{"код 123 семь", "код 123 7"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Digitize(tt.in), "input %q", tt.in)
	}
}

func TestEngine_SpelledNumbersFillNumericSlots(t *testing.T) {
	engine := NewDefaultEngine()

	tests := []struct {
		name   string
		text   string
		intent string
		fields model.Fields
	}{
		{
			name:   "quantity and price in words",
			text:   "добавь молоко количество пять по цене восемьдесят",
			intent: model.IntentAddPosition,
			fields: model.Fields{"item": "молоко", "qty": 5, "price": 80},
		},
		{
			name:   "document number in words",
			text:   "открой приходную накладную номер двадцать один",
			intent: model.IntentOpenDocumentByNumber,
			fields: model.Fields{"doc": "приходную накладную", "number": 21},
		},
		{
			name:   "catalog code in words",
			text:   "покажи номенклатуру код сто три",
			intent: model.IntentOpenCatalogByCode,
			fields: model.Fields{"catalog": "номенклатуру", "code": "103"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Extract(tt.text)
			assert.Equal(t, tt.intent, got.Name)
			assert.Equal(t, tt.fields, got.Fields)
		})
	}
}

func TestEngine_CatchAllKeepsSpelledNumbers(t *testing.T) {
	got := NewDefaultEngine().Extract("пять минут")

	assert.Equal(t, model.IntentUnknown, got.Name)
	assert.Equal(t, "пять минут", got.Fields[UnknownField])
}
