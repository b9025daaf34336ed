package metadata

// StaticNames maps spoken roots to configuration object names. Several roots
// may share a name; the longest root that prefixes a fragment wins.
var StaticNames = map[string]string{
	// Catalogs
	"номенклатур": "Номенклатура",
	"номенкатур":  "Номенклатура",
	"организац":   "Организация",
	"сотрудник":   "Сотрудники",
	"должност":    "Должность",
	"контрагент":  "Контрагенты",
	"адрес":       "АдресаХранения",

	// Documents
	"приходн":       "ПриходнаяНакладная",
	"расходн":       "РасходнаяНакладная",
	"договор":       "ДоговорыКонтрагентов",
	"перемещен":     "ПеремещениеТоваров",
	"акт":           "АктПриёмаМатериалов",
	"заказ":         "ЗаказПоставщику",
	"заказ постав":  "ЗаказПоставщику",
	"заказ покупат": "ЗаказПокупателю",
	"расположен":    "РасположениеТоваров",
	"инвент":        "Инвентаризация",
	"цена на":       "ЦенаНаПродажу",
	"цену на":       "ЦенаНаПродажу",

	// Information registers
	"список команд": "СписокКомандССервера",
	"закупочн":      "ЗакупочныеЦены",
	"цен":           "ЦенаПродажи",

	// Reports
	"актуальн":         "АктуальныйЦеныНоменклатур",
	"остат":            "ОстаткиНоменклатуры",
	"хранени":          "ХранениеНоменклатуры",
	"результат":        "РезультатыИнвентаризации",
	"результаты инвен": "РезультатыИнвентаризации",
	"продаж":           "ОтчетПоПродажам",
}
