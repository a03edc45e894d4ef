package document

import (
	"fmt"
	"sort"
)

// Labels holds every fixed string printed on an instruction.
type Labels struct {
	MakeModel string
	Module    string
	Year      string
	Revision  string
	Version   string

	ProgramNo   string
	ProgramDate string

	Generated  string // format: timestamp, identity
	PageNumber string // format: current page, total
	Unknown    string

	ConnectionHeading string
	FullHeading       string

	FileNotFound string
	ErrorPrefix  string
}

var labelSets = map[string]Labels{
	"en": {
		MakeModel:         "Make/Model",
		Module:            "Module",
		Year:              "Year",
		Revision:          "Rev.",
		Version:           "Version:",
		ProgramNo:         "Program No:",
		ProgramDate:       "of:",
		Generated:         "Generated: %s by %s",
		PageNumber:        "PAGE %d / %s",
		Unknown:           "N/A",
		ConnectionHeading: "Connection Diagram and Instructions",
		FullHeading:       "Additional Description / Indicators",
		FileNotFound:      "File not found",
		ErrorPrefix:       "Error: ",
	},
	"ru": {
		MakeModel:         "Марка, Модель",
		Module:            "Модуль",
		Year:              "Год",
		Revision:          "Rev.:",
		Version:           "Версия:",
		ProgramNo:         "программа №:",
		ProgramDate:       "от:",
		Generated:         "Generated: %s by %s",
		PageNumber:        "PAGE %d / %s",
		Unknown:           "N/A",
		ConnectionHeading: "Схема подключения и инструкции:",
		FullHeading:       "Дополнительное описание / Индикаторы:",
		FileNotFound:      "Файл не найден",
		ErrorPrefix:       "Ошибка: ",
	},
}

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

// English returns the default label set.
func English() Labels {
	return labelSets[DefaultLanguage]
}

// LabelsFor returns the label set for a language code.
func LabelsFor(lang string) (Labels, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	l, ok := labelSets[lang]
	if !ok {
		return Labels{}, fmt.Errorf("unsupported language %q (supported: %v)", lang, Languages())
	}
	return l, nil
}

// Languages lists the bundled label sets.
func Languages() []string {
	langs := make([]string, 0, len(labelSets))
	for k := range labelSets {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}
