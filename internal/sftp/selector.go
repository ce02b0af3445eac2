// Copyright 2025 Skiff Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sftp

import (
	"context"
	"errors"
	"io"
)

// Decision is a selector's verdict on one directory entry.
type Decision int

const (
	// Include keeps the entry and continues scanning.
	Include Decision = iota
	// Exclude drops the entry and continues scanning.
	Exclude
	// Stop drops the entry and ends the scan early.
	Stop
)

// Selector decides, per candidate entry, whether to include it in a
// listing and whether to keep scanning.
type Selector interface {
	Select(info RemoteResourceInfo) Decision
}

// Filter is a plain include/exclude predicate. Adapt one into a Selector
// with SelectorFrom; a Filter can never stop a scan early.
type Filter func(info RemoteResourceInfo) bool

// filterSelector adapts a Filter into a Selector.
type filterSelector struct {
	filter Filter
}

func (s filterSelector) Select(info RemoteResourceInfo) Decision {
	if s.filter(info) {
		return Include
	}
	return Exclude
}

// SelectorFrom adapts a predicate-style filter into a Selector. A nil
// filter selects everything.
func SelectorFrom(filter Filter) Selector {
	if filter == nil {
		return SelectAll
	}
	return filterSelector{filter: filter}
}

// selectAll includes every entry and never stops early.
type selectAll struct{}

func (selectAll) Select(RemoteResourceInfo) Decision { return Include }

// SelectAll is the default selector: include everything, scan to the end.
var SelectAll Selector = selectAll{}

// scanDir drains a directory handle through a selector. Entries are
// returned in server enumeration order; "." and ".." are never candidates.
// All enumeration paths share this one routine so predicate filters and
// full selectors cannot diverge.
func scanDir(ctx context.Context, dir DirHandle, selector Selector) ([]RemoteResourceInfo, error) {
	if selector == nil {
		selector = SelectAll
	}
	var out []RemoteResourceInfo
	for {
		batch, err := dir.ReadDir(ctx)
		for _, info := range batch {
			if info.Name == "." || info.Name == ".." {
				continue
			}
			switch selector.Select(info) {
			case Include:
				out = append(out, info)
			case Exclude:
				// keep scanning
			case Stop:
				return out, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
	}
}
