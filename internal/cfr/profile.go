package cfr

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lox/cfrkit/internal/fileutil"
)

// Strategy files are little-endian binary archives of a keyed map:
//
//	magic "CFRP" | version byte | scalar width byte |
//	uvarint entry count |
//	entries sorted by key: uvarint key length, key bytes,
//	                       uvarint action count, scalars
//
// This implementation writes 64-bit scalars; the width byte lets the loader
// accept a 32-bit variant of the same layout.
const (
	profileMagic   = "CFRP"
	profileVersion = 1
)

// WriteProfile persists every node's average strategy. The file is replaced
// atomically so a crashed writer never leaves a partial profile behind.
func WriteProfile(path string, table *NodeTable) error {
	var buf bytes.Buffer
	buf.WriteString(profileMagic)
	buf.WriteByte(profileVersion)
	buf.WriteByte(8)

	keys := table.Keys()
	var scratch [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		buf.Write(scratch[:n])
	}

	putUvarint(uint64(len(keys)))
	var scalar [8]byte
	for _, key := range keys {
		node, _ := table.Get(key)
		average := node.AverageStrategy()

		putUvarint(uint64(len(key)))
		buf.WriteString(key)
		putUvarint(uint64(len(average)))
		for _, v := range average {
			binary.LittleEndian.PutUint64(scalar[:], math.Float64bits(v))
			buf.Write(scalar[:])
		}
	}

	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// LoadProfile reads a strategy file into a read-only node table: every node
// carries only its average strategy, with regrets and sums zeroed.
func LoadProfile(path string) (*NodeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open strategy profile: %w", err)
	}
	defer f.Close()

	table, err := readProfile(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadProfile, path, err)
	}
	return table, nil
}

func readProfile(r *bufio.Reader) (*NodeTable, error) {
	magic := make([]byte, len(profileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}
	if string(magic) != profileMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != profileVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	width, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("unsupported scalar width %d", width)
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}

	table := NewNodeTable()
	for i := uint64(0); i < count; i++ {
		keyLen, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, err
		}

		actions, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		if actions == 0 {
			return nil, fmt.Errorf("info set %q has no actions", key)
		}
		average := make([]float64, actions)
		for a := range average {
			average[a], err = readScalar(r, width)
			if err != nil {
				return nil, err
			}
		}

		if _, exists := table.Get(string(key)); exists {
			return nil, fmt.Errorf("duplicate info set %q", key)
		}
		table.nodes[string(key)] = newLoadedNode(average)
	}

	// Anything after the declared entries means the writer and this reader
	// disagree about the format.
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after %d entries", count)
	}
	return table, nil
}

func readScalar(r io.Reader, width byte) (float64, error) {
	if width == 4 {
		var raw uint32
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(raw)), nil
	}
	var raw uint64
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return 0, err
	}
	return math.Float64frombits(raw), nil
}
