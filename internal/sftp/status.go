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
	"errors"
	"fmt"
)

// StatusCode is a status value returned by the remote peer in an
// SSH_FXP_STATUS response (draft-ietf-secsh-filexfer-02, section 7).
type StatusCode uint32

const (
	StatusOK StatusCode = iota
	StatusEOF
	StatusNoSuchFile
	StatusPermissionDenied
	StatusFailure
	StatusBadMessage
	StatusNoConnection
	StatusConnectionLost
	StatusOpUnsupported
)

// String returns the protocol name of the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "SSH_FX_OK"
	case StatusEOF:
		return "SSH_FX_EOF"
	case StatusNoSuchFile:
		return "SSH_FX_NO_SUCH_FILE"
	case StatusPermissionDenied:
		return "SSH_FX_PERMISSION_DENIED"
	case StatusFailure:
		return "SSH_FX_FAILURE"
	case StatusBadMessage:
		return "SSH_FX_BAD_MESSAGE"
	case StatusNoConnection:
		return "SSH_FX_NO_CONNECTION"
	case StatusConnectionLost:
		return "SSH_FX_CONNECTION_LOST"
	case StatusOpUnsupported:
		return "SSH_FX_OP_UNSUPPORTED"
	default:
		return fmt.Sprintf("SSH_FX_UNKNOWN(%d)", uint32(c))
	}
}

// StatusError is a structured failure returned by the remote peer. The
// status code is preserved verbatim so callers can distinguish "permission
// denied" from "no space" programmatically. It is never reinterpreted by
// the client, with one exception: StatExistence converts StatusNoSuchFile
// into an absent result.
type StatusError struct {
	Code StatusCode
	Path string // path the failing request named, if any
	Msg  string // server-provided message, if any
}

func (e *StatusError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Path, msg, e.Code)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Code)
}

// IsStatus reports whether err is a StatusError carrying the given code.
func IsStatus(err error, code StatusCode) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// WrongTypeError reports that a path exists but is not the kind of entry
// the operation needs. MakeDirectories raises it when an ancestor of the
// target exists as a non-directory.
type WrongTypeError struct {
	Path string
	Type Type // what the entry actually is
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("%s exists but is not a directory (is %s)", e.Path, e.Type)
}
