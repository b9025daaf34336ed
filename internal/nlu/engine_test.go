package nlu

import (
	"testing"

	"voxcmd/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DefaultRules(t *testing.T) {
	engine := NewDefaultEngine()

	tests := []struct {
		name   string
		text   string
		intent string
		fields model.Fields
	}{
		{
			name:   "catalog by code",
			text:   "покажи номенклатуру код 123",
			intent: model.IntentOpenCatalogByCode,
			fields: model.Fields{"catalog": "номенклатуру", "code": "123"},
		},
		{
			name:   "catalog by name",
			text:   "открой контрагентов наименование ромашка плюс",
			intent: model.IntentOpenCatalogByName,
			fields: model.Fields{"catalog": "контрагентов", "name": "ромашка плюс"},
		},
		{
			name:   "catalog list with noun",
			text:   "открой справочник сотрудники",
			intent: model.IntentOpenCatalogList,
			fields: model.Fields{"catalog": "сотрудники"},
		},
		{
			name:   "catalog list multi word",
			text:   "покажи адреса хранения",
			intent: model.IntentOpenCatalogList,
			fields: model.Fields{"catalog": "адреса хранения"},
		},
		{
			name:   "document by number",
			text:   "открой приходную накладную номер 15",
			intent: model.IntentOpenDocumentByNumber,
			fields: model.Fields{"doc": "приходную накладную", "number": 15},
		},
		{
			name:   "document by bare number",
			text:   "покажи договор 7",
			intent: model.IntentOpenDocumentByNumber,
			fields: model.Fields{"doc": "договор", "number": 7},
		},
		{
			name:   "document list",
			text:   "покажи список расходных накладных",
			intent: model.IntentOpenDocumentList,
			fields: model.Fields{"doc": "расходных накладных"},
		},
		{
			name:   "act is a document",
			text:   "открой акт приёма материалов",
			intent: model.IntentOpenDocumentList,
			fields: model.Fields{"doc": "акт приёма материалов"},
		},
		{
			name:   "create catalog",
			text:   "создай новую организацию",
			intent: model.IntentCreateCatalog,
			fields: model.Fields{"catalog": "организацию"},
		},
		{
			name:   "create document",
			text:   "создай новую приходную накладную",
			intent: model.IntentCreateDocument,
			fields: model.Fields{"doc": "приходную накладную"},
		},
		{
			name:   "add position with quantity",
			text:   "добавь молоко количество 5",
			intent: model.IntentAddPosition,
			fields: model.Fields{"item": "молоко", "qty": 5},
		},
		{
			name:   "add position multi word item and price",
			text:   "добавь позицию сыр российский в количестве 2 штуки по цене 450 рублей",
			intent: model.IntentAddPosition,
			fields: model.Fields{"item": "сыр российский", "qty": 2, "price": 450},
		},
		{
			name:   "add position without quantity",
			text:   "добавь хлеб",
			intent: model.IntentAddPosition,
			fields: model.Fields{"item": "хлеб"},
		},
		{
			name:   "report with prefix",
			text:   "запусти отчёт по остаткам номенклатуры",
			intent: model.IntentRunReport,
			fields: model.Fields{"report": "остаткам номенклатуры"},
		},
		{
			name:   "actual prices is a report not an act",
			text:   "покажи актуальные цены номенклатур",
			intent: model.IntentRunReport,
			fields: model.Fields{"report": "актуальные цены номенклатур"},
		},
		{
			name:   "register with noun",
			text:   "открой регистр сведений закупочные цены",
			intent: model.IntentOpenInfoRegister,
			fields: model.Fields{"reg": "закупочные цены"},
		},
		{
			name:   "register command list",
			text:   "покажи список команд с сервера",
			intent: model.IntentOpenInfoRegister,
			fields: model.Fields{"reg": "список команд с сервера"},
		},
		{
			name:   "save document",
			text:   "сохрани документ",
			intent: model.IntentSaveDocument,
			fields: model.Fields{},
		},
		{
			name:   "exit voice mode",
			text:   "выйди из голосового режима",
			intent: model.IntentExitVoice,
			fields: model.Fields{},
		},
		{
			name:   "help",
			text:   "что я могу сказать",
			intent: model.IntentHelp,
			fields: model.Fields{},
		},
		{
			name:   "unknown carries text",
			text:   "какая сегодня погода",
			intent: model.IntentUnknown,
			fields: model.Fields{"text": "какая сегодня погода"},
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

func TestEngine_EmptyInputIsUnknown(t *testing.T) {
	got := NewDefaultEngine().Extract("")

	assert.Equal(t, model.IntentUnknown, got.Name)
	assert.Empty(t, got.Fields)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewDefaultEngine()
	inputs := []string{"", "покажи номенклатуру код 123", "добавь молоко количество 5", "что-то странное"}

	for _, in := range inputs {
		first := engine.Extract(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, engine.Extract(in), "input %q", in)
		}
	}
}

func TestEngine_DeclarationOrderWins(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		intent string
	}{
		// also matches AddPosition with item "новую приходную накладную"
		{name: "creation before slot filling", text: "добавь новую приходную накладную", intent: model.IntentCreateDocument},
		// also matches OpenInfoRegister via the "цен" register root
		{name: "documents before registers", text: "покажи цену на продажу", intent: model.IntentOpenDocumentList},
		// also matches AddPosition with item "номенклатуру"
		{name: "catalog creation before slot filling", text: "добавь номенклатуру", intent: model.IntentCreateCatalog},
	}

	engine := NewDefaultEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.intent, engine.Extract(tt.text).Name)
		})
	}
}

func TestEngine_FirstMatchingRuleWins(t *testing.T) {
	engine := NewEngine(
		MustRule("First", `^открой (?P<what>\p{L}+)$`),
		MustRule("Second", `^открой (?P<what>\p{L}+)$`),
	)

	got := engine.Extract("открой склад")
	assert.Equal(t, "First", got.Name)
	assert.Equal(t, model.Fields{"what": "склад"}, got.Fields)
}

func TestEngine_OptionalGroupsOmitted(t *testing.T) {
	engine := NewEngine(MustRule("Open", `^открой (?P<what>\p{L}+)(?: код (?P<code>\d+))?$`, "code"))

	got := engine.Extract("открой склад")
	assert.Equal(t, model.Fields{"what": "склад"}, got.Fields)
	assert.NotContains(t, got.Fields, "code")
}

func TestEngine_NumericOverflowOmitted(t *testing.T) {
	got := NewDefaultEngine().Extract("добавь молоко количество 999999999999999999999999")

	assert.Equal(t, model.IntentAddPosition, got.Name)
	assert.Equal(t, model.Fields{"item": "молоко"}, got.Fields)
}

func TestEngine_FieldsAreDeclared(t *testing.T) {
	engine := NewDefaultEngine()
	inputs := []string{
		"покажи номенклатуру код 123",
		"открой приходную накладную номер 15",
		"добавь сыр количество 3 цена 100",
		"запусти отчёт результаты инвентаризации",
		"непонятная фраза",
	}

	for _, in := range inputs {
		got := engine.Extract(in)
		var declared map[string]FieldKind
		for _, r := range engine.Rules() {
			if r.Intent == got.Name {
				declared = r.Fields
				break
			}
		}
		require.NotNil(t, declared, "input %q", in)
		for name := range got.Fields {
			assert.Contains(t, declared, name, "input %q", in)
		}
	}
}

func TestNewRule_RejectsUndeclaredNumericField(t *testing.T) {
	_, err := NewRule("Broken", `^(?P<a>\d+)$`, "b")
	assert.Error(t, err)

	_, err = NewRule("Broken", `^(?P<a>\d+$`)
	assert.Error(t, err)
}

func TestEngine_CatchAllIsLast(t *testing.T) {
	rules := NewDefaultEngine().Rules()

	require.NotEmpty(t, rules)
	assert.Equal(t, model.IntentUnknown, rules[len(rules)-1].Intent)
}
