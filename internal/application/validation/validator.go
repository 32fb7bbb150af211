// Package validation holds the create/update payload schemas for every
// LifeOS entity and turns validator failures into field-scoped errors.
// It does no I/O.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainerror "github.com/lifeos/backend/internal/domain/error"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// engine returns the shared validator. validator.Validate caches struct
// metadata and is safe for concurrent use.
func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// decimals are validated by value, so gt=0 and friends apply to them
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})

		v.RegisterStructValidation(areaLevels, LifeAreaCreate{})
		v.RegisterStructValidation(habitSchedule, HabitCreate{})

		instance = v
	})
	return instance
}

// Struct validates a payload against its validate tags. It returns nil or a
// *domainerror.ValidationError listing every violated field.
func Struct(payload interface{}) error {
	err := engine().Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming error, not bad input
		return err
	}

	out := &domainerror.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), fe.Tag(), message(fe))
	}
	return out
}

// fieldPath drops the root struct name from the namespace, giving
// "milestones[0].title" style paths in json names.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	isText := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isText {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		if isList {
			return fmt.Sprintf("must have at least %s items", param)
		}
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		if isText {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		if isList {
			return fmt.Sprintf("must have at most %s items", param)
		}
		return fmt.Sprintf("must be at most %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", param)
	case "hexcolor":
		return "must be a hex color"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "uuid":
		return "must be a UUID"
	case "unique":
		return "must not contain duplicates"
	case "gtefield":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "targetdays":
		return "is required for weekly and custom habits"
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

func areaLevels(sl validator.StructLevel) {
	a := sl.Current().Interface().(LifeAreaCreate)
	current, target := 1, 10
	if a.CurrentLevel != nil {
		current = *a.CurrentLevel
	}
	if a.TargetLevel != nil {
		target = *a.TargetLevel
	}
	if target < current {
		sl.ReportError(a.TargetLevel, "targetLevel", "TargetLevel", "gtefield", "currentLevel")
	}
}

func habitSchedule(sl validator.StructLevel) {
	h := sl.Current().Interface().(HabitCreate)
	if h.Frequency != "daily" && h.Frequency != "" && len(h.TargetDays) == 0 {
		sl.ReportError(h.TargetDays, "targetDays", "TargetDays", "targetdays", "")
	}
}

// AreaLevels checks the level bounds of a life area after an update has
// been merged, since either side may have come from the stored record.
func AreaLevels(current, target int) error {
	if target >= current {
		return nil
	}
	out := &domainerror.ValidationError{}
	out.Add("targetLevel", "gtefield", "must be greater than or equal to currentLevel")
	return out
}
