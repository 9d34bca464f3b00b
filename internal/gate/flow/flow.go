// Package flow models the registration dialogue as data: an ordered list of
// steps, each binding a field name to a prompt, a correction prompt, a
// validator, and a normalizer. Both observed variants of the dialogue (with
// and without strict year validation) are presets of the same engine.
package flow

import (
	"strings"

	"gatekeeper/internal/gate/validate"
)

// Step is one question of the registration dialogue.
type Step struct {
	// Field is the record key the answer is stored under.
	Field string
	// Prompt is sent when the step becomes current.
	Prompt string
	// Reprompt is sent when the answer fails validation.
	Reprompt string
	// Validate accepts or rejects the raw answer text.
	Validate func(string) bool
	// Normalize produces the value committed into the record.
	Normalize func(string) string
}

// Flow is the ordered step sequence of one dialogue variant.
type Flow struct {
	steps []Step
}

// New builds a flow from an explicit step list.
func New(steps []Step) Flow {
	return Flow{steps: steps}
}

// Len returns the number of steps.
func (f Flow) Len() int { return len(f.steps) }

// Step returns the step at index i.
func (f Flow) Step(i int) Step { return f.steps[i] }

// Fields returns the field names in step order.
func (f Flow) Fields() []string {
	fields := make([]string, len(f.steps))
	for i, s := range f.steps {
		fields[i] = s.Field
	}
	return fields
}

// Field name constants shared with record rendering.
const (
	FieldName    = "name"
	FieldYear    = "year"
	FieldCity    = "city"
	FieldPurpose = "purpose"
	FieldVehicle = "vehicle"
)

// DeniedCities is the origin deny set: place names whose residents the group
// does not admit. Matching is normalized exact-match, never substring.
var DeniedCities = []string{
	"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань",
	"Нижний Новгород", "Челябинск", "Самара", "Омск", "Ростов-на-Дону",
	"Уфа", "Красноярск", "Воронеж", "Пермь", "Волгоград",
}

// BannedVehicleTokens lists brand tokens and colloquial aliases that fail the
// vehicle step when they appear as whole words.
var BannedVehicleTokens = []string{"bmw", "бмв", "беха"}

// YearSuffixes are the accepted unit words after the 4-digit model year.
var YearSuffixes = []string{"год", "года"}

// Model year range accepted by the strict year validator.
const (
	MinModelYear = 1990
	MaxModelYear = 2025
)

func acceptAny(string) bool { return true }

// Classic returns the five-step dialogue in its original order: name, model
// year, city, purpose, vehicle. strictYear toggles the year validator; when
// off, the year step accepts free-form text (the second deployed variant).
func Classic(strictYear bool) Flow {
	yearValidate := acceptAny
	yearNormalize := strings.TrimSpace
	yearReprompt := "Пожалуйста, укажите год выпуска вашей машины."
	if strictYear {
		yearValidate = validate.NewYearValidator(MinModelYear, MaxModelYear, YearSuffixes)
		yearNormalize = validate.LeadingYear
		yearReprompt = "Пожалуйста, введите корректный год выпуска вашей машины, например, '2020 год' или '2018 года'."
	}

	return New([]Step{
		{
			Field:     FieldName,
			Prompt:    "Вопрос 1: Как вас зовут?",
			Reprompt:  "Пожалуйста, введите ваше полное имя (имя и фамилию). Имя должно состоять только из букв.",
			Validate:  validate.Name,
			Normalize: strings.TrimSpace,
		},
		{
			Field:     FieldYear,
			Prompt:    "Вопрос 2: Какой год выпуска вашей машины?",
			Reprompt:  yearReprompt,
			Validate:  yearValidate,
			Normalize: yearNormalize,
		},
		{
			Field:     FieldCity,
			Prompt:    "Вопрос 3: Из какого вы города?",
			Reprompt:  "Извините, эта группа предназначена для пользователей из Украины. Пожалуйста, убедитесь, что вы находитесь за пределами России.",
			Validate:  validate.NewOriginValidator(DeniedCities),
			Normalize: strings.TrimSpace,
		},
		{
			Field:     FieldPurpose,
			Prompt:    "Вопрос 4: Какова цель вашего участия?",
			Reprompt:  "Пожалуйста, опишите цель вашего участия.",
			Validate:  acceptAny,
			Normalize: strings.TrimSpace,
		},
		{
			Field:     FieldVehicle,
			Prompt:    "Вопрос 5: Какая у вас машина?",
			Reprompt:  "Извините, мы не принимаем пользователей с машиной марки BMW. Пожалуйста, укажите другой тип автомобиля, чтобы войти в чат.",
			Validate:  validate.NewVehicleValidator(BannedVehicleTokens),
			Normalize: strings.TrimSpace,
		},
	})
}
