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

package wire

import (
	"encoding/binary"
	"errors"

	"skiff/internal/sftp"
)

// SFTP v3 packet types (draft-ietf-secsh-filexfer-02).
const (
	fxpInit     byte = 1
	fxpVersion  byte = 2
	fxpOpen     byte = 3
	fxpClose    byte = 4
	fxpRead     byte = 5
	fxpWrite    byte = 6
	fxpLstat    byte = 7
	fxpFstat    byte = 8
	fxpSetstat  byte = 9
	fxpFsetstat byte = 10
	fxpOpendir  byte = 11
	fxpReaddir  byte = 12
	fxpRemove   byte = 13
	fxpMkdir    byte = 14
	fxpRmdir    byte = 15
	fxpRealpath byte = 16
	fxpStat     byte = 17
	fxpRename   byte = 18
	fxpReadlink byte = 19
	fxpSymlink  byte = 20

	fxpStatus        byte = 101
	fxpHandle        byte = 102
	fxpData          byte = 103
	fxpName          byte = 104
	fxpAttrs         byte = 105
	fxpExtended      byte = 200
	fxpExtendedReply byte = 201
)

var errShortPacket = errors.New("short packet")

// buffer builds a packet payload.
type buffer struct {
	b []byte
}

func (b *buffer) byte(v byte)     { b.b = append(b.b, v) }
func (b *buffer) uint32(v uint32) { b.b = binary.BigEndian.AppendUint32(b.b, v) }
func (b *buffer) uint64(v uint64) { b.b = binary.BigEndian.AppendUint64(b.b, v) }
func (b *buffer) bytes(v []byte) {
	b.uint32(uint32(len(v)))
	b.b = append(b.b, v...)
}
func (b *buffer) str(v string) { b.bytes([]byte(v)) }

// reader consumes a packet payload. The first decode error sticks; callers
// check err once at the end.
type reader struct {
	b   []byte
	err error
}

func (r *reader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if len(r.b) < 4 {
		r.err = errShortPacket
		return 0
	}
	v := binary.BigEndian.Uint32(r.b)
	r.b = r.b[4:]
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	if len(r.b) < 8 {
		r.err = errShortPacket
		return 0
	}
	v := binary.BigEndian.Uint64(r.b)
	r.b = r.b[8:]
	return v
}

func (r *reader) bytes() []byte {
	n := r.uint32()
	if r.err != nil {
		return nil
	}
	if uint32(len(r.b)) < n {
		r.err = errShortPacket
		return nil
	}
	v := r.b[:n]
	r.b = r.b[n:]
	return v
}

func (r *reader) str() string { return string(r.bytes()) }

// encodeAttrs appends a v3 attribute block: validity flags followed by
// only the fields those flags name. Unset fields are never transmitted.
func encodeAttrs(b *buffer, attrs sftp.FileAttributes) {
	b.uint32(attrs.Flags())
	if size, ok := attrs.Size(); ok {
		b.uint64(size)
	}
	if uid, gid, ok := attrs.UIDGID(); ok {
		b.uint32(uid)
		b.uint32(gid)
	}
	if mode, ok := attrs.Mode(); ok {
		b.uint32(uint32(mode))
	}
	if atime, mtime, ok := attrs.Times(); ok {
		b.uint32(atime)
		b.uint32(mtime)
	}
}

// v3 attribute validity flags. attrExtended marks trailing extension
// pairs, which are parsed and dropped.
const (
	attrSize        uint32 = 0x00000001
	attrUIDGID      uint32 = 0x00000002
	attrPermissions uint32 = 0x00000004
	attrACModTime   uint32 = 0x00000008
	attrExtended    uint32 = 0x80000000
)

// decodeAttrs consumes a v3 attribute block.
func decodeAttrs(r *reader) sftp.FileAttributes {
	attrs := sftp.EmptyAttributes
	flags := r.uint32()
	if flags&attrSize != 0 {
		attrs = attrs.WithSize(r.uint64())
	}
	if flags&attrUIDGID != 0 {
		uid := r.uint32()
		gid := r.uint32()
		attrs = attrs.WithUIDGID(uid, gid)
	}
	if flags&attrPermissions != 0 {
		attrs = attrs.WithMode(sftp.FileMode(r.uint32()))
	}
	if flags&attrACModTime != 0 {
		atime := r.uint32()
		mtime := r.uint32()
		attrs = attrs.WithTimes(atime, mtime)
	}
	if flags&attrExtended != 0 {
		count := r.uint32()
		for i := uint32(0); i < count && r.err == nil; i++ {
			r.bytes() // type
			r.bytes() // data
		}
	}
	return attrs
}
