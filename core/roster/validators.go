package roster

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/absensi/core"
)

var (
	dayTag  = "rosterday"
	dayText = "day must be one of Senin, Selasa, Rabu, Kamis, Jumat or Sabtu"

	hoursTag  = "rosterhours"
	hoursText = "hours exceed the slots of the day (Senin-Kamis: 8, Jumat: 6, Sabtu: 7)"
)

// InitValidators registers the roster validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dayTag, dayValidation)
	core.RegisterCustomTranslation(validate, translator, dayTag, dayText)

	validate.RegisterStructValidation(entryStructValidation, NewEntry{}, UpdateEntry{})
	core.RegisterCustomTranslation(validate, translator, hoursTag, hoursText)
}

// dayValidation checks that the field holds a school Day.
func dayValidation(fl validator.FieldLevel) bool {
	return Day(fl.Field().String()).IsValid()
}

// entryStructValidation checks that every hour is a slot of the entry's day.
func entryStructValidation(sl validator.StructLevel) {
	var (
		day   Day
		hours []int
	)
	switch e := sl.Current().Interface().(type) {
	case NewEntry:
		day, hours = e.Day, e.Hours
	case UpdateEntry:
		day, hours = e.Day, e.Hours
	default:
		return
	}
	if !day.IsValid() {
		return // reported by rosterday
	}
	for _, h := range hours {
		if h > day.MaxHours() {
			sl.ReportError(hours, "hours", "Hours", hoursTag, "")
			return
		}
	}
}
