package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Content field numbers inside the envelope. The ping pair is fixed by the
// device firmware; the storage block follows it.
const (
	fieldEmpty        protowire.Number = 4
	fieldPingRequest  protowire.Number = 5
	fieldPingResponse protowire.Number = 6
	fieldStopSession  protowire.Number = 7

	fieldStatRequest       protowire.Number = 10
	fieldStatResponse      protowire.Number = 11
	fieldListRequest       protowire.Number = 12
	fieldListResponse      protowire.Number = 13
	fieldReadRequest       protowire.Number = 14
	fieldReadResponse      protowire.Number = 15
	fieldWriteRequest      protowire.Number = 16
	fieldDeleteRequest     protowire.Number = 17
	fieldMkdirRequest      protowire.Number = 18
	fieldMd5sumRequest     protowire.Number = 19
	fieldMd5sumResponse    protowire.Number = 20
	fieldRenameRequest     protowire.Number = 21
	fieldTarExtractRequest protowire.Number = 22
)

// Content is one payload kind the envelope can carry. The set is closed:
// only types in this package implement it.
type Content interface {
	field() protowire.Number
	marshal() []byte
}

// FileType distinguishes directory entries.
type FileType int32

const (
	FileTypeFile FileType = 0
	FileTypeDir  FileType = 1
)

// File is the storage record used by stat, list, read and write payloads.
type File struct {
	Type FileType
	Name string
	Size uint32
	Data []byte
	MD5  string
}

func (f *File) marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(f.Type))
	b = appendStringField(b, 2, f.Name)
	b = appendVarintField(b, 3, uint64(f.Size))
	b = appendBytesField(b, 4, f.Data)
	b = appendStringField(b, 5, f.MD5)
	return b
}

func unmarshalFile(b []byte) (*File, error) {
	f := &File{}
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) {
		switch num {
		case 1:
			f.Type = FileType(u)
		case 2:
			f.Name = string(v)
		case 3:
			f.Size = uint32(u)
		case 4:
			f.Data = append([]byte(nil), v...)
		case 5:
			f.MD5 = string(v)
		}
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Empty is the contentless response.
type Empty struct{}

func (Empty) field() protowire.Number { return fieldEmpty }
func (Empty) marshal() []byte         { return nil }

// PingRequest echoes Data back from the device. An empty ping doubles as
// the keep-alive during long transfers.
type PingRequest struct {
	Data []byte
}

func (PingRequest) field() protowire.Number { return fieldPingRequest }

func (m PingRequest) marshal() []byte {
	return appendBytesField(nil, 1, m.Data)
}

// PingResponse carries the echoed bytes.
type PingResponse struct {
	Data []byte
}

func (PingResponse) field() protowire.Number { return fieldPingResponse }

func (m PingResponse) marshal() []byte {
	return appendBytesField(nil, 1, m.Data)
}

// StopSession returns the device to its text shell.
type StopSession struct{}

func (StopSession) field() protowire.Number { return fieldStopSession }
func (StopSession) marshal() []byte         { return nil }

// StatRequest asks for file metadata. The device only reports metadata for
// files; stat on a directory fails with an invalid-name status.
type StatRequest struct {
	Path string
}

func (StatRequest) field() protowire.Number { return fieldStatRequest }

func (m StatRequest) marshal() []byte {
	return appendStringField(nil, 1, m.Path)
}

// StatResponse holds the metadata record, nil when the device sent none.
type StatResponse struct {
	File *File
}

func (StatResponse) field() protowire.Number { return fieldStatResponse }

func (m StatResponse) marshal() []byte {
	return appendMessageField(nil, 1, m.File)
}

// ListRequest asks for the entries of a directory.
type ListRequest struct {
	Path       string
	IncludeMD5 bool
}

func (ListRequest) field() protowire.Number { return fieldListRequest }

func (m ListRequest) marshal() []byte {
	b := appendStringField(nil, 1, m.Path)
	b = appendBoolField(b, 2, m.IncludeMD5)
	return b
}

// ListResponse is one batch of directory entries; large directories span
// several continuation frames.
type ListResponse struct {
	Files []*File
}

func (ListResponse) field() protowire.Number { return fieldListResponse }

func (m ListResponse) marshal() []byte {
	var b []byte
	for _, f := range m.Files {
		b = appendMessageField(b, 1, f)
	}
	return b
}

// ReadRequest starts a chunked file read.
type ReadRequest struct {
	Path string
}

func (ReadRequest) field() protowire.Number { return fieldReadRequest }

func (m ReadRequest) marshal() []byte {
	return appendStringField(nil, 1, m.Path)
}

// ReadResponse carries one chunk of file data.
type ReadResponse struct {
	File *File
}

func (ReadResponse) field() protowire.Number { return fieldReadResponse }

func (m ReadResponse) marshal() []byte {
	return appendMessageField(nil, 1, m.File)
}

// WriteRequest carries one chunk of a chunked file write.
type WriteRequest struct {
	Path string
	File *File
}

func (WriteRequest) field() protowire.Number { return fieldWriteRequest }

func (m WriteRequest) marshal() []byte {
	b := appendStringField(nil, 1, m.Path)
	b = appendMessageField(b, 2, m.File)
	return b
}

// DeleteRequest removes a file or, recursively, a directory.
type DeleteRequest struct {
	Path      string
	Recursive bool
}

func (DeleteRequest) field() protowire.Number { return fieldDeleteRequest }

func (m DeleteRequest) marshal() []byte {
	b := appendStringField(nil, 1, m.Path)
	b = appendBoolField(b, 2, m.Recursive)
	return b
}

// MkdirRequest creates a directory.
type MkdirRequest struct {
	Path string
}

func (MkdirRequest) field() protowire.Number { return fieldMkdirRequest }

func (m MkdirRequest) marshal() []byte {
	return appendStringField(nil, 1, m.Path)
}

// Md5sumRequest asks the device to hash a file on its own storage.
type Md5sumRequest struct {
	Path string
}

func (Md5sumRequest) field() protowire.Number { return fieldMd5sumRequest }

func (m Md5sumRequest) marshal() []byte {
	return appendStringField(nil, 1, m.Path)
}

// Md5sumResponse is the hex-encoded digest.
type Md5sumResponse struct {
	Sum string
}

func (Md5sumResponse) field() protowire.Number { return fieldMd5sumResponse }

func (m Md5sumResponse) marshal() []byte {
	return appendStringField(nil, 1, m.Sum)
}

// RenameRequest moves a file or directory.
type RenameRequest struct {
	OldPath string
	NewPath string
}

func (RenameRequest) field() protowire.Number { return fieldRenameRequest }

func (m RenameRequest) marshal() []byte {
	b := appendStringField(nil, 1, m.OldPath)
	b = appendStringField(b, 2, m.NewPath)
	return b
}

// TarExtractRequest unpacks an archive already on the device.
type TarExtractRequest struct {
	TarPath string
	OutPath string
}

func (TarExtractRequest) field() protowire.Number { return fieldTarExtractRequest }

func (m TarExtractRequest) marshal() []byte {
	b := appendStringField(nil, 1, m.TarPath)
	b = appendStringField(b, 2, m.OutPath)
	return b
}

func unmarshalContent(num protowire.Number, b []byte) (Content, error) {
	switch num {
	case fieldEmpty:
		return Empty{}, nil
	case fieldPingRequest:
		m := PingRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Data = append([]byte(nil), v...)
			}
		})
		return m, err
	case fieldPingResponse:
		m := PingResponse{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Data = append([]byte(nil), v...)
			}
		})
		return m, err
	case fieldStopSession:
		return StopSession{}, nil
	case fieldStatRequest:
		m := StatRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Path = string(v)
			}
		})
		return m, err
	case fieldStatResponse:
		m := StatResponse{}
		err := unmarshalFileField(b, 1, &m.File)
		return m, err
	case fieldListRequest:
		m := ListRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, u uint64) {
			switch n {
			case 1:
				m.Path = string(v)
			case 2:
				m.IncludeMD5 = u != 0
			}
		})
		return m, err
	case fieldListResponse:
		m := ListResponse{}
		var ferr error
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n != 1 || ferr != nil {
				return
			}
			f, err := unmarshalFile(v)
			if err != nil {
				ferr = err
				return
			}
			m.Files = append(m.Files, f)
		})
		if err == nil {
			err = ferr
		}
		return m, err
	case fieldReadRequest:
		m := ReadRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Path = string(v)
			}
		})
		return m, err
	case fieldReadResponse:
		m := ReadResponse{}
		err := unmarshalFileField(b, 1, &m.File)
		return m, err
	case fieldWriteRequest:
		m := WriteRequest{}
		var ferr error
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			switch n {
			case 1:
				m.Path = string(v)
			case 2:
				if ferr == nil {
					m.File, ferr = unmarshalFile(v)
				}
			}
		})
		if err == nil {
			err = ferr
		}
		return m, err
	case fieldDeleteRequest:
		m := DeleteRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, u uint64) {
			switch n {
			case 1:
				m.Path = string(v)
			case 2:
				m.Recursive = u != 0
			}
		})
		return m, err
	case fieldMkdirRequest:
		m := MkdirRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Path = string(v)
			}
		})
		return m, err
	case fieldMd5sumRequest:
		m := Md5sumRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Path = string(v)
			}
		})
		return m, err
	case fieldMd5sumResponse:
		m := Md5sumResponse{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			if n == 1 {
				m.Sum = string(v)
			}
		})
		return m, err
	case fieldRenameRequest:
		m := RenameRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			switch n {
			case 1:
				m.OldPath = string(v)
			case 2:
				m.NewPath = string(v)
			}
		})
		return m, err
	case fieldTarExtractRequest:
		m := TarExtractRequest{}
		err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
			switch n {
			case 1:
				m.TarPath = string(v)
			case 2:
				m.OutPath = string(v)
			}
		})
		return m, err
	default:
		return nil, fmt.Errorf("protocol: unknown content field %d", num)
	}
}

func unmarshalFileField(b []byte, want protowire.Number, dst **File) error {
	var ferr error
	err := eachField(b, func(n protowire.Number, _ protowire.Type, v []byte, _ uint64) {
		if n == want && ferr == nil {
			*dst, ferr = unmarshalFile(v)
		}
	})
	if err != nil {
		return err
	}
	return ferr
}
