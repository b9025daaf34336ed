package nlu

import "voxcmd/pkg/model"

// Lexical fragments shared by the default rules.
const (
	triggerVerb = `(?:покажи|показать|выведи|вывести|открой|открою|открыть|отобрази)`
	createVerb  = `(?:создай|создать|добавь|добавить|начать|начни|заключи|заключить|оформи|оформить)`
	runVerb     = `(?:запусти|запустить|сформируй|сформировать|построй|построить)`
	newAdj      = `(?:нов(?:ый|ую|ое|ого|ая)\s+)?`
	moreWords   = `(?:\s+\p{L}+)*?`

	catalogNoun  = `(?:справочник` + word + `\s+)?`
	documentNoun = `(?:документ` + word + `\s+)?`
	reportNoun   = `(?:отч[её]т` + word + moreWords + `\s+)?`
	registerNoun = `(?:регистр` + word + `(?:\s+сведений)?\s+)?`

	positionVerb = `(?:добавь|добавить|внеси|внести)`
	positionNoun = `(?:позицию\s+|товар\s+|строку\s+)?`
	itemPhrase   = `(?P<item>[\p{L}\p{N}]+(?:\s+[\p{L}\p{N}]+)*?)`
	qtyTail      = `(?:\s+(?:количество|количестве|колво|в\s+количестве)\s+(?P<qty>\d+)(?:\s+штук` + word + `)?)?`
	priceTail    = `(?:\s+(?:по\s+цене|цена|цене)\s+(?P<price>\d+)(?:\s+рубл` + word + `)?)?`
)

// DefaultRules builds the warehouse rule table. Order is precedence:
//  1. catalog openers (by code, by name, list)
//  2. document openers (by number, list)
//  3. creation commands, then line-item slot filling
//  4. report execution
//  5. register lookups, then document and session control
//
// NewEngine appends the catch-all Unknown rule.
func DefaultRules(s Stems) []Rule {
	catalog := `(?P<catalog>` + s.Catalog.Pattern() + moreWords + `)`
	doc := `(?P<doc>` + s.Document.Pattern() + moreWords + `)`
	report := `(?P<report>` + s.Report.Pattern() + moreWords + `)`
	reg := `(?P<reg>` + s.Register.Pattern() + moreWords + `)`

	return []Rule{
		MustRule(model.IntentOpenCatalogByCode,
			`^`+triggerVerb+`\s+`+catalogNoun+catalog+`\s+код\s+(?P<code>\S+)$`),
		MustRule(model.IntentOpenCatalogByName,
			`^`+triggerVerb+`\s+`+catalogNoun+catalog+`\s+(?:с\s+|по\s+)?(?:наименовани`+word+`|имен`+word+`|имя)\s+(?P<name>.+)$`),
		MustRule(model.IntentOpenCatalogList,
			`^`+triggerVerb+`\s+`+catalogNoun+`(?:список\s+)?`+catalog+`$`),

		MustRule(model.IntentOpenDocumentByNumber,
			`^`+triggerVerb+`\s+`+documentNoun+doc+`\s+(?:номер\s+|под\s+номером\s+)?(?P<number>\d+)$`,
			"number"),
		MustRule(model.IntentOpenDocumentList,
			`^`+triggerVerb+`\s+(?:список\s+)?`+documentNoun+doc+`$`),

		MustRule(model.IntentCreateCatalog,
			`^`+createVerb+`\s+`+newAdj+catalogNoun+catalog+`$`),
		MustRule(model.IntentCreateDocument,
			`^`+createVerb+`\s+`+newAdj+documentNoun+doc+`$`),
		MustRule(model.IntentAddPosition,
			`^`+positionVerb+`\s+`+positionNoun+itemPhrase+qtyTail+priceTail+`$`,
			"qty", "price"),

		MustRule(model.IntentRunReport,
			`^(?:`+runVerb+`|`+triggerVerb+`)\s+`+reportNoun+report+`$`),

		MustRule(model.IntentOpenInfoRegister,
			`^`+triggerVerb+`\s+`+registerNoun+reg+`$`),
		MustRule(model.IntentSaveDocument,
			`^(?:сохрани|сохранить|запиши|записать|проведи|провести)(?:\s+(?:этот|текущий))?(?:\s+документ`+word+`)?$`),
		MustRule(model.IntentExitVoice,
			`^(?:выход|выйди|выйти|заверши|завершить|закончи|закончить)(?:\s+из)?\s+голосов`+word+`\s+(?:режим`+word+`|управлени`+word+`)$`),
		MustRule(model.IntentHelp,
			`^(?:помощь|помоги|справка|что\s+я\s+могу\s+сказать|что\s+ты\s+умеешь)$`),
	}
}
