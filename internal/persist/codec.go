// Package persist implements the engine's save/restore contract: a primitive
// little-endian codec with versioned, length-framed named blocks, the snapshot
// assembled from it, and the stores that keep snapshots (filesystem and
// Postgres). Everything that takes part in a snapshot implements Saveable.
package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTooNew marks a snapshot block whose version is newer than this build
// understands. Guessing at unknown field semantics is never safe, so the load
// fails; callers surface it as an incompatible save.
var ErrTooNew = errors.New("snapshot version newer than supported")

// Saveable is implemented by everything that participates in a snapshot. Each
// implementation begins its state with a versioned block so fields can be
// added later without breaking old snapshots.
type Saveable interface {
	SaveState(w *Writer)
	LoadState(r *Reader) error
}

// Writer serializes primitives into a growing buffer. Writes cannot fail;
// block framing is patched in on EndBlock.
type Writer struct {
	buf    bytes.Buffer
	blocks []int // offsets of pending block length placeholders
}

func NewWriter() *Writer { return &Writer{} }

// Bytes returns the serialized form. Panics if a block is still open, since
// that is a programming error, not a data error.
func (w *Writer) Bytes() []byte {
	if len(w.blocks) != 0 {
		panic("persist: Bytes called with unterminated block")
	}
	return w.buf.Bytes()
}

// BeginBlock opens a named, versioned, length-framed block. Blocks nest.
func (w *Writer) BeginBlock(name string, version uint16) {
	w.WriteString(name)
	w.WriteU16(version)
	w.blocks = append(w.blocks, w.buf.Len())
	w.WriteU32(0) // length placeholder, patched by EndBlock
}

// EndBlock closes the innermost open block, patching its payload length.
func (w *Writer) EndBlock() {
	if len(w.blocks) == 0 {
		panic("persist: EndBlock without BeginBlock")
	}
	at := w.blocks[len(w.blocks)-1]
	w.blocks = w.blocks[:len(w.blocks)-1]
	payload := uint32(w.buf.Len() - at - 4)
	binary.LittleEndian.PutUint32(w.buf.Bytes()[at:at+4], payload)
}

func (w *Writer) WriteU8(v uint8)   { w.buf.WriteByte(v) }
func (w *Writer) WriteU16(v uint16) { w.writeUint(uint64(v), 2) }
func (w *Writer) WriteU32(v uint32) { w.writeUint(uint64(v), 4) }
func (w *Writer) WriteU64(v uint64) { w.writeUint(v, 8) }
func (w *Writer) WriteI64(v int64)  { w.writeUint(uint64(v), 8) }

func (w *Writer) WriteF64(v float64) { w.writeUint(math.Float64bits(v), 8) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteString(s string) {
	w.WriteU16(uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) WriteBytes(b []byte) {
	w.WriteU32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *Writer) writeUint(v uint64, n int) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	w.buf.Write(scratch[:n])
}

// Reader deserializes data produced by Writer. Errors are sticky: the first
// failure poisons all further reads and is reported by Err, so load code can
// read a whole block and check once.
type Reader struct {
	data []byte
	off  int
	ends []int // end offsets of open blocks
	err  error
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// OpenBlock reads a block header and checks its name. The returned version is
// the one the block was written with; the caller decides what versions it can
// load. On name mismatch the reader is poisoned.
func (r *Reader) OpenBlock(name string) uint16 {
	got := r.ReadString()
	version := r.ReadU16()
	length := r.ReadU32()
	if r.err != nil {
		return 0
	}
	if got != name {
		r.fail(fmt.Errorf("expected block %q, found %q", name, got))
		return 0
	}
	end := r.off + int(length)
	if end > len(r.data) {
		r.fail(fmt.Errorf("block %q overruns snapshot (%d bytes past end)", name, end-len(r.data)))
		return 0
	}
	r.ends = append(r.ends, end)
	return version
}

// CloseBlock skips whatever remains of the innermost open block. Skipping is
// what lets a newer writer append fields inside a block without breaking an
// older reader, as long as the block version still says the reader may load it.
func (r *Reader) CloseBlock() {
	if r.err != nil {
		return
	}
	if len(r.ends) == 0 {
		r.fail(errors.New("CloseBlock without OpenBlock"))
		return
	}
	end := r.ends[len(r.ends)-1]
	r.ends = r.ends[:len(r.ends)-1]
	if r.off > end {
		r.fail(fmt.Errorf("read %d bytes past block end", r.off-end))
		return
	}
	r.off = end
}

func (r *Reader) ReadU8() uint8   { return uint8(r.readUint(1)) }
func (r *Reader) ReadU16() uint16 { return uint16(r.readUint(2)) }
func (r *Reader) ReadU32() uint32 { return uint32(r.readUint(4)) }
func (r *Reader) ReadU64() uint64 { return r.readUint(8) }
func (r *Reader) ReadI64() int64  { return int64(r.readUint(8)) }

func (r *Reader) ReadF64() float64 { return math.Float64frombits(r.readUint(8)) }

func (r *Reader) ReadBool() bool { return r.readUint(1) != 0 }

func (r *Reader) ReadString() string {
	n := int(r.ReadU16())
	if !r.want(n) {
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

func (r *Reader) ReadBytes() []byte {
	n := int(r.ReadU32())
	if !r.want(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

func (r *Reader) readUint(n int) uint64 {
	if !r.want(n) {
		return 0
	}
	var scratch [8]byte
	copy(scratch[:], r.data[r.off:r.off+n])
	r.off += n
	return binary.LittleEndian.Uint64(scratch[:])
}

func (r *Reader) want(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail(fmt.Errorf("truncated snapshot: need %d bytes at offset %d", n, r.off))
		return false
	}
	if len(r.ends) > 0 && r.off+n > r.ends[len(r.ends)-1] {
		r.fail(fmt.Errorf("read of %d bytes crosses block boundary at offset %d", n, r.off))
		return false
	}
	return true
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
