package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	vectorEntryPrefix = "vecent"
)

// makeScopePrefix generates the prefix shared by every entry in a scope.
// Format: prefix:len(scope):scope
// The scope length is a fixed 2-byte BigEndian value so one scope is never a
// prefix of another.
func makeScopePrefix(scopeID string) ([]byte, error) {
	if len(scopeID) > 0xFFFF {
		return nil, fmt.Errorf("scope id too long: %d bytes", len(scopeID))
	}
	prefix := vectorEntryPrefix + ":"
	buf := make([]byte, len(prefix)+2+len(scopeID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(scopeID)))
	offset += 2
	copy(buf[offset:], scopeID)
	return buf, nil
}

// makeVectorEntryKey generates a key for an entry.
// Format: prefix:len(scope):scope:id
func makeVectorEntryKey(scopeID, id string) ([]byte, error) {
	prefix, err := makeScopePrefix(scopeID)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(prefix)+1+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	return append(buf, id...), nil
}
