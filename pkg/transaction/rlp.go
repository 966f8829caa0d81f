package transaction

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// 编码辅助：nil 地址编码为空字符串（合约创建）

func addressItem(a *common.Address) []byte {
	if a == nil {
		return []byte{}
	}
	return a.Bytes()
}

func u256Item(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func hashesItem(hs []common.Hash) []common.Hash {
	if hs == nil {
		return []common.Hash{}
	}
	return hs
}

func accessListItem(al AccessList) AccessList {
	if al == nil {
		return AccessList{}
	}
	return al
}

// listReader walks a decoded RLP list. The first error sticks, so parsers can read every
// field and check once at the end.
type listReader struct {
	items []interface{}
	pos   int
	shape string
	err   error
}

func newListReader(shape string, items []interface{}, want int) *listReader {
	r := &listReader{items: items, shape: shape}
	if len(items) < want {
		r.err = decodeErrorf("%s: expected at least %d fields, got %d", shape, want, len(items))
	}
	return r
}

func (r *listReader) next(name Field) interface{} {
	if r.err != nil {
		return nil
	}
	if r.pos >= len(r.items) {
		r.err = decodeErrorf("%s: missing %s", r.shape, name)
		return nil
	}
	item := r.items[r.pos]
	r.pos++
	return item
}

func (r *listReader) bytes(name Field) []byte {
	item := r.next(name)
	if r.err != nil {
		return nil
	}
	b, ok := item.([]byte)
	if !ok {
		r.err = decodeErrorf("%s: %s must be a string, got a list", r.shape, name)
		return nil
	}
	return b
}

func (r *listReader) uint64(name Field) uint64 {
	b := r.bytes(name)
	if r.err != nil {
		return 0
	}
	v, err := decodeUint64(name, b)
	if err != nil {
		r.err = err
	}
	return v
}

func (r *listReader) u256(name Field) *uint256.Int {
	b := r.bytes(name)
	if r.err != nil {
		return nil
	}
	v, err := decodeU256(name, b)
	if err != nil {
		r.err = err
	}
	return v
}

func (r *listReader) address(name Field) *common.Address {
	b := r.bytes(name)
	if r.err != nil {
		return nil
	}
	switch len(b) {
	case 0:
		return nil
	case common.AddressLength:
		a := common.BytesToAddress(b)
		return &a
	default:
		r.err = decodeErrorf("%s: %s must be empty or %d bytes, got %d", r.shape, name, common.AddressLength, len(b))
		return nil
	}
}

func (r *listReader) input() []byte {
	return copyBytes(r.bytes(FieldInput))
}

func (r *listReader) list(name Field) []interface{} {
	item := r.next(name)
	if r.err != nil {
		return nil
	}
	l, ok := item.([]interface{})
	if !ok {
		r.err = decodeErrorf("%s: %s must be a list", r.shape, name)
		return nil
	}
	return l
}

func (r *listReader) accessList() AccessList {
	items := r.list(FieldAccessList)
	if r.err != nil || len(items) == 0 {
		return nil
	}
	al := make(AccessList, 0, len(items))
	for i, item := range items {
		tuple, ok := item.([]interface{})
		if !ok || len(tuple) != 2 {
			r.err = decodeErrorf("%s: access list entry %d must be [address, storageKeys]", r.shape, i)
			return nil
		}
		addr, ok := tuple[0].([]byte)
		if !ok || len(addr) != common.AddressLength {
			r.err = decodeErrorf("%s: access list entry %d has a malformed address", r.shape, i)
			return nil
		}
		keys, err := decodeHashList(tuple[1])
		if err != nil {
			r.err = decodeErrorf("%s: access list entry %d: %v", r.shape, i, err)
			return nil
		}
		al = append(al, AccessTuple{Address: common.BytesToAddress(addr), StorageKeys: keys})
	}
	return al
}

func (r *listReader) hashes(name Field) []common.Hash {
	item := r.next(name)
	if r.err != nil {
		return nil
	}
	hs, err := decodeHashList(item)
	if err != nil {
		r.err = decodeErrorf("%s: %s: %v", r.shape, name, err)
		return nil
	}
	return hs
}

// rest returns the unconsumed tail.
func (r *listReader) rest() []interface{} {
	if r.err != nil || r.pos >= len(r.items) {
		return nil
	}
	return r.items[r.pos:]
}

func decodeHashList(item interface{}) ([]common.Hash, error) {
	l, ok := item.([]interface{})
	if !ok {
		return nil, decodeErrorf("expected a list of hashes")
	}
	if len(l) == 0 {
		return nil, nil
	}
	hs := make([]common.Hash, len(l))
	for i, h := range l {
		b, ok := h.([]byte)
		if !ok || len(b) != common.HashLength {
			return nil, decodeErrorf("hash %d must be %d bytes", i, common.HashLength)
		}
		hs[i] = common.BytesToHash(b)
	}
	return hs, nil
}

// 整数必须是规范编码：无前导零，否则重新编码无法逐字节还原
func decodeUint64(name Field, b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, decodeErrorf("%s exceeds 64 bits", name)
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, decodeErrorf("%s has leading zero bytes", name)
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

func decodeU256(name Field, b []byte) (*uint256.Int, error) {
	if len(b) > 32 {
		return nil, decodeErrorf("%s exceeds 256 bits", name)
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, decodeErrorf("%s has leading zero bytes", name)
	}
	return new(uint256.Int).SetBytes(b), nil
}
