/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

var (
	// ErrInvalidBatch is returned when a batch document does not match the schema.
	ErrInvalidBatch = errors.New("domain: invalid batch")
	// ErrIncomplete is returned by Batch.Check when required fields are missing.
	ErrIncomplete = errors.New("domain: incomplete batch")
)

//go:embed schema/batch.schema.json
var batchSchema []byte

var batchSchemaLoader = gojsonschema.NewBytesLoader(batchSchema)

// DecodeBatch validates data against the batch schema and decodes it.
func DecodeBatch(data []byte) (Batch, error) {
	res, err := gojsonschema.Validate(batchSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Batch{}, fmt.Errorf("%w: %s", ErrInvalidBatch, strings.Join(msgs, "; "))
	}
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if b.Orientation == "" {
		b.Orientation = Horizontal
	}
	return b, nil
}

// LoadBatch reads and decodes a batch file.
func LoadBatch(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("read batch: %w", err)
	}
	return DecodeBatch(data)
}
