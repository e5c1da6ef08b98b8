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
	"encoding/json"
	"reflect"
	"strings"
)

const redacted = "[redacted]"

// Redact returns cfg as a JSON-shaped map with every field tagged
// `sensitive:"true"` replaced by a placeholder, for logging.
func Redact(cfg interface{}) map[string]interface{} {
	out, ok := redactValue(reflect.ValueOf(cfg)).(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}

	return out
}

func redactValue(v reflect.Value) interface{} {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return plain(v)
	}

	t := v.Type()
	out := make(map[string]interface{}, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = f.Name
		}

		fv := v.Field(i)
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}

		if f.Tag.Get("sensitive") == "true" {
			if !fv.IsZero() {
				out[name] = redacted
			}

			continue
		}

		out[name] = redactValue(fv)
	}

	return out
}

// plain round-trips leaf values through JSON so custom marshalers
// (durations, counts) log the way they are configured.
func plain(v reflect.Value) interface{} {
	if !v.CanInterface() {
		return nil
	}

	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return nil
	}

	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	return out
}
