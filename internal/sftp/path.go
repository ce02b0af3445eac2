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

import "path"

// Remote paths always use forward slashes regardless of the local OS, so
// everything here goes through the POSIX "path" package, never "filepath".

// PathComponents is a path split into its parent and final name. Parent of
// "/" is "/" and parent of "." is ".", giving the ascent loops in
// MakeDirectories a fixed point to stop at.
type PathComponents struct {
	Parent string
	Name   string
	Path   string
}

// IsRoot reports whether the path is its own parent.
func (c PathComponents) IsRoot() bool {
	return c.Path == c.Parent
}

// SplitPath cleans a remote path and splits it into components. The empty
// path means the server's current directory and splits as ".".
func SplitPath(p string) PathComponents {
	p = path.Clean(p)
	return PathComponents{
		Parent: path.Dir(p),
		Name:   path.Base(p),
		Path:   p,
	}
}

// JoinPath joins remote path elements with forward slashes.
func JoinPath(elems ...string) string {
	return path.Join(elems...)
}
