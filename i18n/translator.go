package i18n

import "strings"

// Placeholder fallbacks used when a message is rendered without a prop or a
// schema name.
const (
	AnonymousProp   = "schema prop"
	AnonymousSchema = "<<anonymous>>"
)

// Translator retrieves localized messages for Issue codes.
// data provides the values substituted for {placeholders} in the message
// (for example "prop", "schema", "expected", "got" or "reason").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalog = map[string]map[string]string{
	"en": {
		"invalid_type": "Invalid prop `{prop}` of type `{got}` supplied to `{schema}`, expected `{expected}`.",
		"required":     "Required prop `{prop}` was not specified in `{schema}`.",
		"custom":       "Invalid prop `{prop}` supplied to `{schema}`: {reason}",
		"unknown_kind": "Unknown validator `{expected}` for prop `{prop}` in `{schema}`.",
		"invalid_node": "Unsupported descriptor entry at `{prop}` in `{schema}`.",
		"parse_error":  "parse error: {reason}",
	},
	"ja": {
		"invalid_type": "`{schema}` に渡されたプロパティ `{prop}` の型 `{got}` が不正です (期待値: `{expected}`)",
		"required":     "`{schema}` の必須プロパティ `{prop}` が指定されていません",
		"custom":       "`{schema}` に渡されたプロパティ `{prop}` が不正です: {reason}",
		"unknown_kind": "`{schema}` のプロパティ `{prop}` に未知のバリデータ `{expected}` が指定されています",
		"invalid_node": "`{schema}` の `{prop}` は未対応の記述子です",
		"parse_error":  "解析エラー: {reason}",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalog[t.lang][code]
	if !ok {
		return code
	}
	return Format(tmpl, data)
}

// Format substitutes {key} placeholders in tmpl with values from data. Empty
// or missing "prop" and "schema" values fall back to AnonymousProp and
// AnonymousSchema. Unknown placeholders are left untouched.
func Format(tmpl string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data)+4)
	for k, v := range data {
		if k == "prop" || k == "schema" {
			continue
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	prop := data["prop"]
	if prop == "" {
		prop = AnonymousProp
	}
	schema := data["schema"]
	if schema == "" {
		schema = AnonymousSchema
	}
	pairs = append(pairs, "{prop}", prop, "{schema}", schema)
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
