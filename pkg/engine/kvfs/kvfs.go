// Package kvfs is a reference Engine that keeps the whole filesystem in a
// kv.Store.
//
// Every call runs in one store transaction, so with an atomic backend a
// failing call leaves nothing behind. The engine serializes calls with a
// single mutex, the same way littlefs does when built with thread-safety.
package kvfs

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/littlefs/internal/logger"
	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/kv"
)

// codeError carries an engine return code out of a store transaction.
type codeError int32

func (c codeError) Error() string {
	return "kvfs: engine code " + strconv.Itoa(int(c))
}

func fail(code int32) error { return codeError(code) }

type openFile struct {
	id    string
	flags engine.OpenFlag
	pos   uint32
}

type openDir struct {
	entries []engine.Info
	pos     int
}

// Engine implements engine.Engine over a kv.Store.
type Engine struct {
	mu sync.Mutex

	store  kv.Store
	limits engine.Limits

	mounted bool
	files   map[int32]*openFile
	dirs    map[int32]*openDir
	nextFD  int32
}

var _ engine.Engine = (*Engine)(nil)

// New returns an unmounted engine over store.
//
// Zero fields in limits take their defaults. NameMax, FileMax and AttrMax
// are recorded by Format; Mount uses the recorded values.
func New(store kv.Store, limits engine.Limits) *Engine {
	limits = limits.WithDefaults()
	if limits.FileMax > math.MaxInt32 {
		limits.FileMax = math.MaxInt32
	}
	return &Engine{store: store, limits: limits}
}

// Limits returns the limits currently in force.
func (e *Engine) Limits() engine.Limits {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limits
}

// ============================================================================
// Transactions
// ============================================================================

// code converts a transaction error to a return code. Anything that is not
// a codeError is a store failure and is reported as ErrIO.
func code(op string, err error) int32 {
	if err == nil {
		return engine.OK
	}
	var c codeError
	if errors.As(err, &c) {
		return int32(c)
	}
	logger.Error("kvfs: %s: store failure: %v", op, err)
	return engine.ErrIO
}

func (e *Engine) view(op string, fn func(txn kv.Txn) error) int32 {
	return code(op, e.store.View(context.Background(), fn))
}

func (e *Engine) update(op string, fn func(txn kv.Txn) error) int32 {
	return code(op, e.store.Update(context.Background(), fn))
}

func getInode(txn kv.Txn, id string) (inode, error) {
	data, err := txn.Get(keyInode(id))
	if err != nil {
		return inode{}, err
	}
	var node inode
	if err := decode(data, &node); err != nil {
		return inode{}, fail(engine.ErrCorrupt)
	}
	return node, nil
}

func putInode(txn kv.Txn, id string, node inode) error {
	data, err := encode(&node)
	if err != nil {
		return err
	}
	return txn.Set(keyInode(id), data)
}

func getSuperblock(txn kv.Txn) (superblock, error) {
	data, err := txn.Get(keySuperblock)
	if errors.Is(err, kv.ErrNotFound) {
		return superblock{}, fail(engine.ErrCorrupt)
	}
	if err != nil {
		return superblock{}, err
	}
	var sb superblock
	if err := decode(data, &sb); err != nil || sb.Magic != magic {
		return superblock{}, fail(engine.ErrCorrupt)
	}
	return sb, nil
}

func putSuperblock(txn kv.Txn, sb superblock) error {
	data, err := encode(&sb)
	if err != nil {
		return err
	}
	return txn.Set(keySuperblock, data)
}

// charge adjusts the used byte count by delta, failing with ErrNoSpc when a
// positive delta would exceed the configured capacity.
func (e *Engine) charge(txn kv.Txn, delta int64) error {
	if delta == 0 {
		return nil
	}
	sb, err := getSuperblock(txn)
	if err != nil {
		return err
	}
	used := int64(sb.Used) + delta
	if used < 0 {
		used = 0
	}
	if delta > 0 && e.limits.CapacityBytes > 0 && uint64(used) > e.limits.CapacityBytes {
		return fail(engine.ErrNoSpc)
	}
	sb.Used = uint64(used)
	return putSuperblock(txn, sb)
}

// ============================================================================
// Path resolution
// ============================================================================

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}

// walk resolves components starting at the root.
func walk(txn kv.Txn, comps []string) (string, inode, error) {
	id := rootID
	node, err := getInode(txn, rootID)
	if errors.Is(err, kv.ErrNotFound) {
		return "", inode{}, fail(engine.ErrCorrupt)
	}
	if err != nil {
		return "", inode{}, err
	}

	for _, name := range comps {
		if engine.Type(node.Type) != engine.TypeDir {
			return "", inode{}, fail(engine.ErrNotDir)
		}
		child, err := txn.Get(keyChild(id, name))
		if errors.Is(err, kv.ErrNotFound) {
			return "", inode{}, fail(engine.ErrNoEnt)
		}
		if err != nil {
			return "", inode{}, err
		}
		id = string(child)
		node, err = getInode(txn, id)
		if errors.Is(err, kv.ErrNotFound) {
			return "", inode{}, fail(engine.ErrCorrupt)
		}
		if err != nil {
			return "", inode{}, err
		}
	}
	return id, node, nil
}

// walkParent resolves the directory that holds the last component of comps.
func walkParent(txn kv.Txn, comps []string) (string, error) {
	id, node, err := walk(txn, comps[:len(comps)-1])
	if err != nil {
		return "", err
	}
	if engine.Type(node.Type) != engine.TypeDir {
		return "", fail(engine.ErrNotDir)
	}
	return id, nil
}

// lookupChild returns the id of name in dir, or "" when absent.
func lookupChild(txn kv.Txn, parentID, name string) (string, error) {
	child, err := txn.Get(keyChild(parentID, name))
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(child), nil
}

func (e *Engine) create(txn kv.Txn, parentID, name string, typ engine.Type) (string, error) {
	if uint32(len(name)) > e.limits.NameMax {
		return "", fail(engine.ErrNameTooLong)
	}
	id := uuid.NewString()
	if err := putInode(txn, id, inode{Type: uint32(typ)}); err != nil {
		return "", err
	}
	if err := txn.Set(keyChild(parentID, name), []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// purge deletes an entry's inode, content and attributes and returns the
// number of accounted bytes released. The child link is left to the caller.
func purge(txn kv.Txn, id string, node inode) (int64, error) {
	var attrKeys [][]byte
	freed := int64(node.Size)
	if err := txn.Scan(keyAttrPrefix(id), func(key, value []byte) error {
		attrKeys = append(attrKeys, key)
		freed += int64(len(value))
		return nil
	}); err != nil {
		return 0, err
	}
	for _, key := range attrKeys {
		if err := txn.Delete(key); err != nil {
			return 0, err
		}
	}
	if err := txn.Delete(keyContent(id)); err != nil {
		return 0, err
	}
	if err := txn.Delete(keyInode(id)); err != nil {
		return 0, err
	}
	return freed, nil
}

func isEmptyDir(txn kv.Txn, id string) (bool, error) {
	errStop := errors.New("stop")
	err := txn.Scan(keyChildPrefix(id), func(key, value []byte) error {
		return errStop
	})
	if errors.Is(err, errStop) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================================
// Lifecycle
// ============================================================================

func (e *Engine) Format() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mounted {
		return engine.ErrInval
	}

	// Superblock goes first so an interrupted wipe does not mount.
	if rc := e.update("format", func(txn kv.Txn) error {
		return txn.Delete(keySuperblock)
	}); rc != engine.OK {
		return rc
	}
	if rc := code("format", kv.DropAll(context.Background(), e.store)); rc != engine.OK {
		return rc
	}

	return e.update("format", func(txn kv.Txn) error {
		if err := putSuperblock(txn, superblock{
			Magic:   magic,
			Version: diskVersion,
			NameMax: e.limits.NameMax,
			FileMax: e.limits.FileMax,
			AttrMax: e.limits.AttrMax,
		}); err != nil {
			return err
		}
		return putInode(txn, rootID, inode{Type: uint32(engine.TypeDir)})
	})
}

func (e *Engine) Mount() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mounted {
		return engine.ErrInval
	}

	var sb superblock
	rc := e.view("mount", func(txn kv.Txn) error {
		var err error
		sb, err = getSuperblock(txn)
		if err != nil {
			return err
		}
		if sb.Version>>16 != diskVersion>>16 {
			return fail(engine.ErrInval)
		}
		_, err = getInode(txn, rootID)
		if errors.Is(err, kv.ErrNotFound) {
			return fail(engine.ErrCorrupt)
		}
		return err
	})
	if rc != engine.OK {
		return rc
	}

	e.limits.NameMax = sb.NameMax
	e.limits.FileMax = sb.FileMax
	e.limits.AttrMax = sb.AttrMax
	e.files = make(map[int32]*openFile)
	e.dirs = make(map[int32]*openDir)
	e.nextFD = 0
	e.mounted = true
	return engine.OK
}

func (e *Engine) Unmount() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	e.files = nil
	e.dirs = nil
	e.mounted = false
	return engine.OK
}

// ============================================================================
// Namespace
// ============================================================================

func (e *Engine) Mkdir(path string) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	comps := splitPath(path)
	if len(comps) == 0 {
		return engine.ErrExist
	}

	return e.update("mkdir", func(txn kv.Txn) error {
		parentID, err := walkParent(txn, comps)
		if err != nil {
			return err
		}
		name := comps[len(comps)-1]
		existing, err := lookupChild(txn, parentID, name)
		if err != nil {
			return err
		}
		if existing != "" {
			return fail(engine.ErrExist)
		}
		_, err = e.create(txn, parentID, name, engine.TypeDir)
		return err
	})
}

func (e *Engine) Remove(path string) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	comps := splitPath(path)
	if len(comps) == 0 {
		return engine.ErrInval
	}

	return e.update("remove", func(txn kv.Txn) error {
		parentID, err := walkParent(txn, comps)
		if err != nil {
			return err
		}
		name := comps[len(comps)-1]
		id, node, err := walk(txn, comps)
		if err != nil {
			return err
		}
		if engine.Type(node.Type) == engine.TypeDir {
			empty, err := isEmptyDir(txn, id)
			if err != nil {
				return err
			}
			if !empty {
				return fail(engine.ErrNotEmpty)
			}
		}
		freed, err := purge(txn, id, node)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyChild(parentID, name)); err != nil {
			return err
		}
		return e.charge(txn, -freed)
	})
}

func (e *Engine) Rename(oldPath, newPath string) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	oldComps := splitPath(oldPath)
	newComps := splitPath(newPath)
	if len(oldComps) == 0 || len(newComps) == 0 {
		return engine.ErrInval
	}

	return e.update("rename", func(txn kv.Txn) error {
		oldParent, err := walkParent(txn, oldComps)
		if err != nil {
			return err
		}
		id, node, err := walk(txn, oldComps)
		if err != nil {
			return err
		}
		newParent, err := walkParent(txn, newComps)
		if err != nil {
			return err
		}

		if strings.Join(oldComps, "/") == strings.Join(newComps, "/") {
			return nil
		}
		if engine.Type(node.Type) == engine.TypeDir && isPrefix(oldComps, newComps) {
			return fail(engine.ErrInval)
		}

		newName := newComps[len(newComps)-1]
		if uint32(len(newName)) > e.limits.NameMax {
			return fail(engine.ErrNameTooLong)
		}

		destID, err := lookupChild(txn, newParent, newName)
		if err != nil {
			return err
		}
		if destID != "" {
			dest, err := getInode(txn, destID)
			if err != nil {
				return err
			}
			srcDir := engine.Type(node.Type) == engine.TypeDir
			destDir := engine.Type(dest.Type) == engine.TypeDir
			switch {
			case srcDir && !destDir:
				return fail(engine.ErrNotDir)
			case !srcDir && destDir:
				return fail(engine.ErrIsDir)
			case destDir:
				empty, err := isEmptyDir(txn, destID)
				if err != nil {
					return err
				}
				if !empty {
					return fail(engine.ErrNotEmpty)
				}
			}
			freed, err := purge(txn, destID, dest)
			if err != nil {
				return err
			}
			if err := e.charge(txn, -freed); err != nil {
				return err
			}
		}

		if err := txn.Delete(keyChild(oldParent, oldComps[len(oldComps)-1])); err != nil {
			return err
		}
		return txn.Set(keyChild(newParent, newName), []byte(id))
	})
}

// isPrefix reports whether prefix is a proper prefix of comps.
func isPrefix(prefix, comps []string) bool {
	if len(prefix) >= len(comps) {
		return false
	}
	for i := range prefix {
		if prefix[i] != comps[i] {
			return false
		}
	}
	return true
}

func (e *Engine) Stat(path string, info *engine.Info) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted || info == nil {
		return engine.ErrInval
	}
	comps := splitPath(path)

	return e.view("stat", func(txn kv.Txn) error {
		_, node, err := walk(txn, comps)
		if err != nil {
			return err
		}
		name := "/"
		if len(comps) > 0 {
			name = comps[len(comps)-1]
		}
		*info = engine.Info{Type: engine.Type(node.Type), Size: node.Size, Name: name}
		return nil
	})
}

// ============================================================================
// Attributes
// ============================================================================

func (e *Engine) GetAttr(path string, attr uint8, buf []byte) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	comps := splitPath(path)

	var size int
	rc := e.view("getattr", func(txn kv.Txn) error {
		id, _, err := walk(txn, comps)
		if err != nil {
			return err
		}
		value, err := txn.Get(keyAttr(id, attr))
		if errors.Is(err, kv.ErrNotFound) {
			return fail(engine.ErrNoAttr)
		}
		if err != nil {
			return err
		}
		copy(buf, value)
		size = len(value)
		return nil
	})
	if rc != engine.OK {
		return rc
	}
	return int32(size)
}

func (e *Engine) SetAttr(path string, attr uint8, value []byte) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	if uint32(len(value)) > e.limits.AttrMax {
		return engine.ErrNoSpc
	}
	comps := splitPath(path)

	return e.update("setattr", func(txn kv.Txn) error {
		id, _, err := walk(txn, comps)
		if err != nil {
			return err
		}
		old, err := txn.Get(keyAttr(id, attr))
		if err != nil && !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		if err := e.charge(txn, int64(len(value))-int64(len(old))); err != nil {
			return err
		}
		return txn.Set(keyAttr(id, attr), value)
	})
}

// RemoveAttr deletes attr. Removing an attribute that is not set succeeds.
func (e *Engine) RemoveAttr(path string, attr uint8) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	comps := splitPath(path)

	return e.update("removeattr", func(txn kv.Txn) error {
		id, _, err := walk(txn, comps)
		if err != nil {
			return err
		}
		old, err := txn.Get(keyAttr(id, attr))
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(keyAttr(id, attr)); err != nil {
			return err
		}
		return e.charge(txn, -int64(len(old)))
	})
}

// ============================================================================
// Descriptors
// ============================================================================

// allocFD returns a free descriptor number, or -1 when the table is full.
func (e *Engine) allocFD() int32 {
	if uint32(len(e.files)+len(e.dirs)) >= e.limits.MaxOpenFiles {
		return -1
	}
	for {
		fd := e.nextFD
		if e.nextFD == math.MaxInt32 {
			e.nextFD = 0
		} else {
			e.nextFD++
		}
		_, isFile := e.files[fd]
		_, isDir := e.dirs[fd]
		if !isFile && !isDir {
			return fd
		}
	}
}

// fileNode loads the inode behind an open file. A file removed while open is
// reported as a bad descriptor.
func fileNode(txn kv.Txn, f *openFile) (inode, error) {
	node, err := getInode(txn, f.id)
	if errors.Is(err, kv.ErrNotFound) {
		return inode{}, fail(engine.ErrBadF)
	}
	return node, err
}

func readContent(txn kv.Txn, id string, size uint32) ([]byte, error) {
	data, err := txn.Get(keyContent(id))
	if errors.Is(err, kv.ErrNotFound) {
		data = nil
	} else if err != nil {
		return nil, err
	}
	if uint32(len(data)) > size {
		data = data[:size]
	}
	if uint32(len(data)) < size {
		data = append(data, make([]byte, int(size)-len(data))...)
	}
	return data, nil
}

// resize sets a file's length, zero-filling any growth, and charges the
// difference.
func (e *Engine) resize(txn kv.Txn, id string, node inode, data []byte, size uint32) error {
	switch {
	case uint32(len(data)) > size:
		data = data[:size]
	case uint32(len(data)) < size:
		data = append(data, make([]byte, int(size)-len(data))...)
	}
	if err := e.charge(txn, int64(size)-int64(node.Size)); err != nil {
		return err
	}
	if size == 0 {
		if err := txn.Delete(keyContent(id)); err != nil {
			return err
		}
	} else if err := txn.Set(keyContent(id), data); err != nil {
		return err
	}
	node.Size = size
	return putInode(txn, id, node)
}

// FileOpen opens or creates a regular file. O_TRUNC requires write access.
func (e *Engine) FileOpen(path string, flags engine.OpenFlag) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	if !flags.Valid() || (flags&engine.O_TRUNC != 0 && !flags.Writable()) {
		return engine.ErrInval
	}
	comps := splitPath(path)
	if len(comps) == 0 {
		return engine.ErrIsDir
	}

	fd := e.allocFD()
	if fd < 0 {
		return engine.ErrNoMem
	}

	var id string
	rc := e.update("open", func(txn kv.Txn) error {
		parentID, err := walkParent(txn, comps)
		if err != nil {
			return err
		}
		name := comps[len(comps)-1]
		id, err = lookupChild(txn, parentID, name)
		if err != nil {
			return err
		}

		if id == "" {
			if flags&engine.O_CREAT == 0 {
				return fail(engine.ErrNoEnt)
			}
			id, err = e.create(txn, parentID, name, engine.TypeReg)
			return err
		}

		node, err := getInode(txn, id)
		if errors.Is(err, kv.ErrNotFound) {
			return fail(engine.ErrCorrupt)
		}
		if err != nil {
			return err
		}
		if engine.Type(node.Type) == engine.TypeDir {
			return fail(engine.ErrIsDir)
		}
		if flags&engine.O_CREAT != 0 && flags&engine.O_EXCL != 0 {
			return fail(engine.ErrExist)
		}
		if flags&engine.O_TRUNC != 0 && node.Size > 0 {
			return e.resize(txn, id, node, nil, 0)
		}
		return nil
	})
	if rc != engine.OK {
		return rc
	}

	e.files[fd] = &openFile{id: id, flags: flags}
	return fd
}

func (e *Engine) FileClose(fd int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	if _, ok := e.files[fd]; !ok {
		return engine.ErrBadF
	}
	delete(e.files, fd)
	return engine.OK
}

// file returns the open file for fd, or a return code.
func (e *Engine) file(fd int32) (*openFile, int32) {
	if !e.mounted {
		return nil, engine.ErrInval
	}
	f, ok := e.files[fd]
	if !ok {
		return nil, engine.ErrBadF
	}
	return f, engine.OK
}

func (e *Engine) FileRead(fd int32, buf []byte) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}
	if !f.flags.Readable() {
		return engine.ErrBadF
	}
	if len(buf) > math.MaxInt32 {
		buf = buf[:math.MaxInt32]
	}

	var n int
	rc = e.view("read", func(txn kv.Txn) error {
		node, err := fileNode(txn, f)
		if err != nil {
			return err
		}
		if f.pos >= node.Size || len(buf) == 0 {
			return nil
		}
		data, err := readContent(txn, f.id, node.Size)
		if err != nil {
			return err
		}
		n = copy(buf, data[f.pos:])
		return nil
	})
	if rc != engine.OK {
		return rc
	}
	f.pos += uint32(n)
	return int32(n)
}

func (e *Engine) FileWrite(fd int32, buf []byte) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}
	if !f.flags.Writable() {
		return engine.ErrBadF
	}

	pos := f.pos
	rc = e.update("write", func(txn kv.Txn) error {
		node, err := fileNode(txn, f)
		if err != nil {
			return err
		}
		if f.flags&engine.O_APPEND != 0 {
			pos = node.Size
		}
		if len(buf) == 0 {
			return nil
		}
		end := uint64(pos) + uint64(len(buf))
		if end > uint64(e.limits.FileMax) {
			return fail(engine.ErrFBig)
		}

		data, err := readContent(txn, f.id, node.Size)
		if err != nil {
			return err
		}
		size := node.Size
		if uint32(end) > size {
			size = uint32(end)
			data = append(data, make([]byte, int(size)-len(data))...)
		}
		copy(data[pos:], buf)
		return e.resize(txn, f.id, node, data, size)
	})
	if rc != engine.OK {
		return rc
	}
	f.pos = pos + uint32(len(buf))
	return int32(len(buf))
}

func (e *Engine) FileSeek(fd int32, off int32, whence int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}

	var size uint32
	if whence == engine.SeekEnd {
		rc = e.view("seek", func(txn kv.Txn) error {
			node, err := fileNode(txn, f)
			size = node.Size
			return err
		})
		if rc != engine.OK {
			return rc
		}
	}

	var base int64
	switch whence {
	case engine.SeekSet:
		base = 0
	case engine.SeekCur:
		base = int64(f.pos)
	case engine.SeekEnd:
		base = int64(size)
	default:
		return engine.ErrInval
	}

	pos := base + int64(off)
	if pos < 0 || pos > int64(e.limits.FileMax) {
		return engine.ErrInval
	}
	f.pos = uint32(pos)
	return int32(pos)
}

func (e *Engine) FileTell(fd int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}
	return int32(f.pos)
}

func (e *Engine) FileSize(fd int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}

	var size uint32
	rc = e.view("size", func(txn kv.Txn) error {
		node, err := fileNode(txn, f)
		size = node.Size
		return err
	})
	if rc != engine.OK {
		return rc
	}
	return int32(size)
}

func (e *Engine) FileTruncate(fd int32, size uint32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}
	if !f.flags.Writable() {
		return engine.ErrBadF
	}
	if size > e.limits.FileMax {
		return engine.ErrFBig
	}

	return e.update("truncate", func(txn kv.Txn) error {
		node, err := fileNode(txn, f)
		if err != nil {
			return err
		}
		if node.Size == size {
			return nil
		}
		data, err := readContent(txn, f.id, node.Size)
		if err != nil {
			return err
		}
		return e.resize(txn, f.id, node, data, size)
	})
}

// FileSync only validates fd; writes are committed as they happen.
func (e *Engine) FileSync(fd int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, rc := e.file(fd)
	if rc != engine.OK {
		return rc
	}
	return e.view("sync", func(txn kv.Txn) error {
		_, err := fileNode(txn, f)
		return err
	})
}

// DirOpen snapshots the listing of a directory. Like littlefs, the listing
// starts with "." and "..".
func (e *Engine) DirOpen(path string) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	comps := splitPath(path)

	fd := e.allocFD()
	if fd < 0 {
		return engine.ErrNoMem
	}

	entries := []engine.Info{
		{Type: engine.TypeDir, Name: "."},
		{Type: engine.TypeDir, Name: ".."},
	}
	rc := e.view("opendir", func(txn kv.Txn) error {
		id, node, err := walk(txn, comps)
		if err != nil {
			return err
		}
		if engine.Type(node.Type) != engine.TypeDir {
			return fail(engine.ErrNotDir)
		}

		type link struct{ name, id string }
		var links []link
		if err := txn.Scan(keyChildPrefix(id), func(key, value []byte) error {
			links = append(links, link{name: childName(id, key), id: string(value)})
			return nil
		}); err != nil {
			return err
		}

		for _, l := range links {
			child, err := getInode(txn, l.id)
			if errors.Is(err, kv.ErrNotFound) {
				return fail(engine.ErrCorrupt)
			}
			if err != nil {
				return err
			}
			entries = append(entries, engine.Info{
				Type: engine.Type(child.Type),
				Size: child.Size,
				Name: l.name,
			})
		}
		return nil
	})
	if rc != engine.OK {
		return rc
	}

	e.dirs[fd] = &openDir{entries: entries}
	return fd
}

func (e *Engine) DirRead(fd int32, info *engine.Info) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted || info == nil {
		return engine.ErrInval
	}
	d, ok := e.dirs[fd]
	if !ok {
		return engine.ErrBadF
	}
	if d.pos >= len(d.entries) {
		return 0
	}
	*info = d.entries[d.pos]
	d.pos++
	return 1
}

func (e *Engine) DirClose(fd int32) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}
	if _, ok := e.dirs[fd]; !ok {
		return engine.ErrBadF
	}
	delete(e.dirs, fd)
	return engine.OK
}

// FSSize returns the bytes held by file content and attributes, saturating
// at math.MaxInt32.
func (e *Engine) FSSize() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mounted {
		return engine.ErrInval
	}

	var used uint64
	rc := e.view("fssize", func(txn kv.Txn) error {
		sb, err := getSuperblock(txn)
		used = sb.Used
		return err
	})
	if rc != engine.OK {
		return rc
	}
	if used > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(used)
}
