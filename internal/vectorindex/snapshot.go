package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"hr-rag-assistant/models"
)

const (
	vectorsFile  = "index.vec"
	metadataFile = "metadata.json"

	snapshotMagic   = "HRVX"
	snapshotVersion = uint32(1)
)

type vectorHeader struct {
	Magic   [4]byte
	Version uint32
	Count   uint32
	Dim     uint32
}

type snapshotMetadata struct {
	Embedder  string           `json:"embedder"`
	Dimension int              `json:"dimension"`
	Passages  []models.Passage `json:"passages"`
}

// snapshot is immutable once published; queries read it without locking.
type snapshot struct {
	passages []models.Passage
	vectors  [][]float32
}

func snapshotExists(dir string) bool {
	for _, name := range []string{vectorsFile, metadataFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

func writeSnapshot(dir, embedderName string, dim int, snap *snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	meta := snapshotMetadata{Embedder: embedderName, Dimension: dim, Passages: snap.passages}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	vecTmp, err := writeTemp(dir, vectorsFile, func(w io.Writer) error {
		return encodeVectors(w, dim, snap.vectors)
	})
	if err != nil {
		return err
	}
	metaTmp, err := writeTemp(dir, metadataFile, func(w io.Writer) error {
		_, err := w.Write(metaBytes)
		return err
	})
	if err != nil {
		os.Remove(vecTmp)
		return err
	}

	// Not atomic as a pair; readSnapshot rejects a torn publish by count and header checks.
	if err := os.Rename(vecTmp, filepath.Join(dir, vectorsFile)); err != nil {
		os.Remove(vecTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("publish vectors: %w", err)
	}
	if err := os.Rename(metaTmp, filepath.Join(dir, metadataFile)); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("publish metadata: %w", err)
	}
	return nil
}

func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp %s: %w", name, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return tmp, nil
}

func encodeVectors(w io.Writer, dim int, vectors [][]float32) error {
	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)

	hdr := vectorHeader{Version: snapshotVersion, Count: uint32(len(vectors)), Dim: uint32(dim)}
	copy(hdr.Magic[:], snapshotMagic)
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for _, v := range vectors {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return bw.Close()
}

func readSnapshot(dir, embedderName string, dim int) (*snapshot, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata: %w", ErrCorruptSnapshot, err)
	}
	var meta snapshotMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %w", ErrCorruptSnapshot, err)
	}
	if meta.Embedder != embedderName {
		return nil, fmt.Errorf("%w: built with embedder %q, configured %q", ErrCorruptSnapshot, meta.Embedder, embedderName)
	}
	if meta.Dimension != dim {
		return nil, fmt.Errorf("%w: metadata dimension %d, embedder dimension %d", ErrCorruptSnapshot, meta.Dimension, dim)
	}

	f, err := os.Open(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: open vectors: %w", ErrCorruptSnapshot, err)
	}
	defer f.Close()

	br := bufio.NewReader(brotli.NewReader(f))

	var hdr vectorHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrCorruptSnapshot, err)
	}
	if string(hdr.Magic[:]) != snapshotMagic || hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unrecognised vector file", ErrCorruptSnapshot)
	}
	if int(hdr.Dim) != dim {
		return nil, fmt.Errorf("%w: vector dimension %d, embedder dimension %d", ErrCorruptSnapshot, hdr.Dim, dim)
	}
	if int(hdr.Count) != len(meta.Passages) {
		return nil, fmt.Errorf("%w: %d vectors for %d passages", ErrCorruptSnapshot, hdr.Count, len(meta.Passages))
	}

	vectors := make([][]float32, hdr.Count)
	for i := range vectors {
		v := make([]float32, dim)
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: read vector %d: %w", ErrCorruptSnapshot, i, err)
		}
		vectors[i] = v
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after %d vectors", ErrCorruptSnapshot, hdr.Count)
	}

	return &snapshot{passages: meta.Passages, vectors: vectors}, nil
}
