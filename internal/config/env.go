package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// lookupEnvOrDefault reads an upper-snake-cased environment variable derived
// from name and parses it into the same type as defaultValue. If the
// variable is unset or fails to parse, defaultValue is returned unchanged.
func lookupEnvOrDefault[T any](name string, defaultValue T) T {
	envName := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))

	value, ok := os.LookupEnv(envName)
	if !ok {
		return defaultValue
	}

	switch def := any(defaultValue).(type) {
	case string:
		return any(value).(T) //nolint:forcetypeassert
	case bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}

		return any(parsed).(T) //nolint:forcetypeassert
	case int:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}

		return any(parsed).(T) //nolint:forcetypeassert
	case uint:
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return defaultValue
		}

		return any(uint(parsed)).(T) //nolint:forcetypeassert
	case float64:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}

		return any(parsed).(T) //nolint:forcetypeassert
	default:
		panic(fmt.Sprintf("lookupEnvOrDefault: unsupported type %T", def))
	}
}
