// internal/vectorstore/index.go
package vectorstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// File header (v1):
//
//	0..7   magic "MNEMVEC1"
//	8..15  dim (uint64)
//	16..23 count (uint64)
//
// followed by count*dim little-endian float32 values.
const indexHeaderSize = 24

var indexMagic = [8]byte{'M', 'N', 'E', 'M', 'V', 'E', 'C', '1'}

// FlatIndex is an append-only flat index over fixed-dimension vectors,
// searched brute-force by squared L2 distance. Vector k (insertion order)
// corresponds to the k-th metadata record; the index itself stores no ids.
type FlatIndex struct {
	dim  int
	data []float32
}

// NewFlatIndex creates an empty index of the given dimensionality.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimensionality: %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimensionality.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int { return len(ix.data) / ix.dim }

// Append adds a vector at the next position.
func (ix *FlatIndex) Append(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("vector dimension mismatch: index dim=%d, vector dim=%d", ix.dim, len(vec))
	}
	ix.data = append(ix.data, vec...)
	return nil
}

// Search returns up to k positions ordered by ascending squared L2 distance
// from query. Equal distances rank by insertion position, earlier first.
// An empty index returns no results and no error.
func (ix *FlatIndex) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != ix.dim {
		return nil, nil, fmt.Errorf("query dimension mismatch: index dim=%d, query dim=%d", ix.dim, len(query))
	}
	count := ix.Len()
	if count == 0 || k <= 0 {
		return nil, nil, nil
	}

	dists := make([]float32, count)
	for pos := 0; pos < count; pos++ {
		row := ix.data[pos*ix.dim : (pos+1)*ix.dim]
		var sum float32
		for i, q := range query {
			d := row[i] - q
			sum += d * d
		}
		dists[pos] = sum
	}

	positions := make([]int, count)
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return dists[positions[i]] < dists[positions[j]]
	})

	if k > count {
		k = count
	}
	top := positions[:k]
	topDists := make([]float32, k)
	for i, pos := range top {
		topDists[i] = dists[pos]
	}
	return top, topDists, nil
}

// EncodeTo serializes the index in its binary file format.
func (ix *FlatIndex) EncodeTo(w io.Writer) error {
	header := make([]byte, indexHeaderSize)
	copy(header[:8], indexMagic[:])
	binary.LittleEndian.PutUint64(header[8:16], uint64(ix.dim))
	binary.LittleEndian.PutUint64(header[16:24], uint64(ix.Len()))
	if _, err := w.Write(header); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, v := range ix.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// DecodeIndex reads a serialized index, validating the header against the
// expected dimensionality.
func DecodeIndex(r io.Reader, dim int) (*FlatIndex, error) {
	header := make([]byte, indexHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	var magic [8]byte
	copy(magic[:], header[:8])
	if magic != indexMagic {
		return nil, errors.New("invalid index file header (magic mismatch)")
	}
	onDiskDim := binary.LittleEndian.Uint64(header[8:16])
	count := binary.LittleEndian.Uint64(header[16:24])
	if onDiskDim == 0 {
		return nil, errors.New("invalid index file header (dim=0)")
	}
	if int(onDiskDim) != dim {
		return nil, fmt.Errorf("index dimension mismatch: file dim=%d, configured dim=%d", onDiskDim, dim)
	}

	ix := &FlatIndex{dim: dim}
	total := int(count) * dim
	ix.data = make([]float32, 0, total)
	buf := make([]byte, 4)
	for i := 0; i < total; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("index file truncated at value %d of %d: %w", i, total, err)
		}
		ix.data = append(ix.data, math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}
	return ix, nil
}
