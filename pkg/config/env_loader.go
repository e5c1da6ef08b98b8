/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
)

var (
	ErrDstMustBeNonNilPointer   = errors.New("dst must be a non-nil pointer")
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
	errUnsupportedFieldKind     = errors.New("unsupported field kind")
)

//nolint:gochecknoglobals // reflect types compared on every field
var (
	durationType    = reflect.TypeOf(time.Duration(0))
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// EnvConfigLoader loads configuration from environment variables named
// after the json tags: NETSCOPE_API_BASE_URL fills API.BaseURL. The whole
// document can also be given as JSON in <prefix>CONFIG_JSON.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{logger: log, prefix: prefix}
}

func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if raw := os.Getenv(e.prefix + "CONFIG_JSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	e.loadStruct(v, e.prefix)

	return nil
}

// loadStruct fills every tagged field it can. A bad value is logged and
// skipped so one typo does not hide the rest of the environment.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if err := e.setField(field, envName); err != nil {
			e.logger.Warn().Err(err).Str("env", envName).Msg("Ignoring invalid environment variable")
		}
	}
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) error {
	if isStruct(field.Type()) {
		if field.Kind() == reflect.Ptr {
			if !e.hasPrefix(envName + "_") {
				return nil
			}

			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}

			field = field.Elem()
		}

		e.loadStruct(field, envName+"_")

		return nil
	}

	value, ok := os.LookupEnv(envName)
	if !ok || value == "" {
		return nil
	}

	if err := setValue(field, value); err != nil {
		return err
	}

	e.logger.Debug().Str("env", envName).Str("value", "[set]").Msg("Loaded value from environment variable")

	return nil
}

// hasPrefix reports whether any variable would populate a nested pointer
// struct, so unset sections stay nil.
func (*EnvConfigLoader) hasPrefix(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && !reflect.PointerTo(t).Implements(unmarshalerType)
}

func setValue(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		field.SetInt(int64(d))

		return nil
	}

	if field.CanAddr() && field.Addr().Type().Implements(unmarshalerType) {
		u := field.Addr().Interface().(json.Unmarshaler)
		if err := u.UnmarshalJSON([]byte(value)); err == nil {
			return nil
		}

		return u.UnmarshalJSON([]byte(strconv.Quote(value)))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}

			field.Set(reflect.ValueOf(parts).Convert(field.Type()))

			return nil
		}

		return json.Unmarshal([]byte(value), field.Addr().Interface())
	case reflect.Map:
		return json.Unmarshal([]byte(value), field.Addr().Interface())
	case reflect.Invalid, reflect.Uintptr, reflect.Complex64, reflect.Complex128, reflect.Array,
		reflect.Chan, reflect.Func, reflect.Interface, reflect.Ptr, reflect.Struct, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s", errUnsupportedFieldKind, field.Kind())
	}

	return nil
}
