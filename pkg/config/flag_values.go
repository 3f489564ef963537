package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// flagValueSetter matches field types that parse their own string form,
// such as the distribution and channel enums.
type flagValueSetter interface {
	Set(value string) error
}

func setFieldValueFromFlag(fieldPtr any, raw string) error {
	if setter, ok := fieldPtr.(flagValueSetter); ok {
		err := setter.Set(raw)
		if err != nil {
			return fmt.Errorf("set flag value: %w", err)
		}

		return nil
	}

	switch ptr := fieldPtr.(type) {
	case *string:
		*ptr = raw

		return nil
	case *metav1.Duration:
		return setDurationFromFlag(ptr, raw)
	case *bool:
		return setBoolFromFlag(ptr, raw)
	default:
		return nil
	}
}

func setDurationFromFlag(target *metav1.Duration, raw string) error {
	if raw == "" {
		target.Duration = 0

		return nil
	}

	duration, err := parseFlexibleDuration(raw)
	if err != nil {
		return err
	}

	target.Duration = duration

	return nil
}

// parseFlexibleDuration accepts Go duration strings ("5m", "90s") and bare
// integers, which are read as seconds ("300" means 300s).
func parseFlexibleDuration(raw string) (time.Duration, error) {
	duration, err := time.ParseDuration(raw)
	if err == nil {
		return duration, nil
	}

	if seconds, atoiErr := strconv.Atoi(raw); atoiErr == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("parse duration %q: %w", raw, err)
}

func setBoolFromFlag(target *bool, raw string) error {
	if raw == "" {
		*target = false

		return nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parse bool %q: %w", raw, err)
	}

	*target = value

	return nil
}

// metav1DurationDecodeHook decodes duration values into metav1.Duration,
// which mapstructure cannot do on its own. Strings accept Go duration
// syntax or bare seconds; plain integers are read as seconds.
func metav1DurationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(metav1.Duration{}) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			raw, ok := data.(string)
			if !ok || raw == "" {
				return metav1.Duration{}, nil
			}

			duration, err := parseFlexibleDuration(raw)
			if err != nil {
				return nil, err
			}

			return metav1.Duration{Duration: duration}, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			seconds := reflect.ValueOf(data).Int()

			return metav1.Duration{Duration: time.Duration(seconds) * time.Second}, nil
		default:
			return data, nil
		}
	}
}
