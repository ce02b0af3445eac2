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

// Type is the kind of a remote filesystem entry.
type Type int

const (
	TypeUnknown Type = iota
	TypeRegular
	TypeDirectory
	TypeSymlink
	TypeSpecial // device, socket, fifo, ...
)

func (t Type) String() string {
	switch t {
	case TypeRegular:
		return "regular file"
	case TypeDirectory:
		return "directory"
	case TypeSymlink:
		return "symlink"
	case TypeSpecial:
		return "special file"
	default:
		return "unknown"
	}
}

// FileMode is the POSIX mode word carried in attributes: type bits in the
// high nibble, permission bits in the low 12 bits.
type FileMode uint32

const (
	modeTypeMask  FileMode = 0xF000
	modePermsMask FileMode = 0x0FFF

	modeRegular   FileMode = 0x8000
	modeDirectory FileMode = 0x4000
	modeSymlink   FileMode = 0xA000
)

// Type decodes the entry type from the mode word.
func (m FileMode) Type() Type {
	switch m & modeTypeMask {
	case modeRegular:
		return TypeRegular
	case modeDirectory:
		return TypeDirectory
	case modeSymlink:
		return TypeSymlink
	case 0:
		return TypeUnknown
	default:
		return TypeSpecial
	}
}

// Perms returns the permission bits of the mode word.
func (m FileMode) Perms() uint32 {
	return uint32(m & modePermsMask)
}

// Attribute validity flags (SSH_FILEXFER_ATTR_*). An attribute request
// carries only the fields whose flag is set; unset fields are never
// transmitted, so a partial update cannot clobber unrelated fields.
const (
	attrFlagSize        uint32 = 0x00000001
	attrFlagUIDGID      uint32 = 0x00000002
	attrFlagPermissions uint32 = 0x00000004
	attrFlagACModTime   uint32 = 0x00000008
)

// FileAttributes describes a remote entry. The zero value is the empty
// attribute set ("change nothing"). Fields are added with the With*
// methods, which return a copy; "unset" is distinct from "set to zero".
type FileAttributes struct {
	flags uint32

	size     uint64
	uid, gid uint32
	mode     FileMode
	atime    uint32 // seconds since epoch
	mtime    uint32
}

// EmptyAttributes is the attribute set carrying no fields.
var EmptyAttributes = FileAttributes{}

// Flags returns the validity mask of the set fields.
func (a FileAttributes) Flags() uint32 { return a.flags }

// IsEmpty reports whether no field is set.
func (a FileAttributes) IsEmpty() bool { return a.flags == 0 }

// Size returns the size field and whether it is set.
func (a FileAttributes) Size() (uint64, bool) {
	return a.size, a.flags&attrFlagSize != 0
}

// UIDGID returns the owner and group ids and whether they are set. The
// protocol transmits them as a pair; there is no way to send one alone.
func (a FileAttributes) UIDGID() (uid, gid uint32, ok bool) {
	return a.uid, a.gid, a.flags&attrFlagUIDGID != 0
}

// Mode returns the mode word and whether it is set.
func (a FileAttributes) Mode() (FileMode, bool) {
	return a.mode, a.flags&attrFlagPermissions != 0
}

// Times returns access and modification times (Unix seconds) and whether
// they are set.
func (a FileAttributes) Times() (atime, mtime uint32, ok bool) {
	return a.atime, a.mtime, a.flags&attrFlagACModTime != 0
}

// Type decodes the entry type from the mode word, or TypeUnknown when the
// mode is not set.
func (a FileAttributes) Type() Type {
	if a.flags&attrFlagPermissions == 0 {
		return TypeUnknown
	}
	return a.mode.Type()
}

// WithSize returns a copy with the size field set.
func (a FileAttributes) WithSize(size uint64) FileAttributes {
	a.flags |= attrFlagSize
	a.size = size
	return a
}

// WithUIDGID returns a copy with the owner/group pair set.
func (a FileAttributes) WithUIDGID(uid, gid uint32) FileAttributes {
	a.flags |= attrFlagUIDGID
	a.uid = uid
	a.gid = gid
	return a
}

// WithPermissions returns a copy with the permission bits set, preserving
// any type bits already carried in the mode word.
func (a FileAttributes) WithPermissions(perms uint32) FileAttributes {
	a.flags |= attrFlagPermissions
	a.mode = (a.mode & modeTypeMask) | (FileMode(perms) & modePermsMask)
	return a
}

// WithMode returns a copy with the full mode word (type + permissions) set.
func (a FileAttributes) WithMode(mode FileMode) FileAttributes {
	a.flags |= attrFlagPermissions
	a.mode = mode
	return a
}

// WithTimes returns a copy with access and modification times set.
func (a FileAttributes) WithTimes(atime, mtime uint32) FileAttributes {
	a.flags |= attrFlagACModTime
	a.atime = atime
	a.mtime = mtime
	return a
}

// OpenMode is a set of access intents for file-open requests
// (SSH_FXF_* bits).
type OpenMode uint32

const (
	OpenRead      OpenMode = 0x00000001
	OpenWrite     OpenMode = 0x00000002
	OpenAppend    OpenMode = 0x00000004
	OpenCreate    OpenMode = 0x00000008
	OpenTruncate  OpenMode = 0x00000010
	OpenExclusive OpenMode = 0x00000020
)

// RenameFlags selects rename semantics (SSH_FXP_RENAME flags). The empty
// set requests legacy rename behavior.
type RenameFlags uint32

const (
	RenameOverwrite RenameFlags = 0x00000001
	RenameAtomic    RenameFlags = 0x00000002
	RenameNative    RenameFlags = 0x00000004
)

// RemoteResourceInfo is one directory-enumeration result.
type RemoteResourceInfo struct {
	Name  string // entry name within its directory
	Path  string // full remote path
	Attrs FileAttributes
}

// IsDirectory reports whether the entry is a directory.
func (i RemoteResourceInfo) IsDirectory() bool {
	return i.Attrs.Type() == TypeDirectory
}

// IsRegularFile reports whether the entry is a regular file.
func (i RemoteResourceInfo) IsRegularFile() bool {
	return i.Attrs.Type() == TypeRegular
}
