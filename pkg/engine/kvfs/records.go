package kvfs

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Database Key Namespace Design
// ==============================
//
// Data Type        Prefix   Key Format                     Value
// ==================================================================
// Superblock       "sb"     sb                             superblock (XDR)
// Inodes           "f:"     f:<id>                         inode (XDR)
// Children         "c:"     c:<parentID>:<name>            child id (raw)
// File content     "b:"     b:<id>                         bytes
// Attributes       "x:"     x:<id>:<attr as 2 hex digits>  bytes
//
// The root directory has the fixed id "root"; every other entry gets a
// random UUID when it is created, so renames only move one child key.
// Listing a directory is a prefix scan over "c:<id>:".

const (
	rootID = "root"

	magic       = "littlefs"
	diskVersion = uint32(0x00020001)
)

var keySuperblock = []byte("sb")

func keyInode(id string) []byte       { return []byte("f:" + id) }
func keyContent(id string) []byte     { return []byte("b:" + id) }
func keyChildPrefix(id string) []byte { return []byte("c:" + id + ":") }
func keyAttrPrefix(id string) []byte  { return []byte("x:" + id + ":") }

func keyChild(parentID, name string) []byte {
	return []byte("c:" + parentID + ":" + name)
}

func keyAttr(id string, attr uint8) []byte {
	return []byte(fmt.Sprintf("x:%s:%02x", id, attr))
}

// superblock is written by Format and checked by Mount.
type superblock struct {
	Magic   string
	Version uint32
	NameMax uint32
	FileMax uint32
	AttrMax uint32

	// Used is the number of bytes held by file content and attributes.
	Used uint64
}

// inode holds the per-entry metadata.
type inode struct {
	Type uint32
	Size uint32
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	_, err := xdr.Unmarshal(bytes.NewReader(data), v)
	return err
}

// childName extracts <name> from a c:<parentID>:<name> key.
func childName(parentID string, key []byte) string {
	return string(key[len(keyChildPrefix(parentID)):])
}
