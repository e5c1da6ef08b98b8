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
	"regexp"
	"strings"
)

// QueryKind says which backend parameter a search string maps to.
type QueryKind int

const (
	QueryNone QueryKind = iota
	QueryIP
	QueryPort
	QueryProtocol
)

func (k QueryKind) String() string {
	switch k {
	case QueryIP:
		return "ip"
	case QueryPort:
		return "port"
	case QueryProtocol:
		return "protocol"
	case QueryNone:
		return "none"
	default:
		return "none"
	}
}

var (
	// dotted-quad prefix: "10.", "192.168.1", "192.168.1.5"
	ipPrefixPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){0,3}\.?$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
)

// QueryClass is the result of ClassifyQuery.
type QueryClass struct {
	Kind  QueryKind
	Value string
}

// ClassifyQuery routes search text to exactly one backend filter. A dotted
// prefix is an IP, bare digits a port, anything else a protocol.
func ClassifyQuery(q string) QueryClass {
	q = strings.TrimSpace(q)

	switch {
	case q == "":
		return QueryClass{Kind: QueryNone}
	case strings.Contains(q, ".") && ipPrefixPattern.MatchString(q):
		return QueryClass{Kind: QueryIP, Value: q}
	case digitsPattern.MatchString(q):
		return QueryClass{Kind: QueryPort, Value: q}
	default:
		return QueryClass{Kind: QueryProtocol, Value: q}
	}
}

// Param returns the single query parameter to send, if any.
func (c QueryClass) Param() (key, value string, ok bool) {
	if c.Kind == QueryNone {
		return "", "", false
	}

	return c.Kind.String(), c.Value, true
}
