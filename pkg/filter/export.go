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

package filter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carverauto/netscope/pkg/models"
)

var csvHeader = []string{"time", "proto", "src", "dst", "size", "flags", "suspicious"}

// ExportCSV writes rows (normally the output of Apply) as CSV.
func ExportCSV(w io.Writer, rows []models.PacketLogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range rows {
		r := &rows[i]

		record := []string{
			r.Time,
			r.Proto,
			r.Src,
			r.Dst,
			strconv.FormatInt(int64(r.Size), 10),
			r.Flags,
			strconv.FormatBool(r.Suspicious),
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
