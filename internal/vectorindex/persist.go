package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/baterms/chatbot/internal/knowledge"
)

// Persisted format: two artifacts written together.
//
//   - index blob: magic, version, dimension, row count, then row-major
//     little-endian float32 vector data in row-id order.
//   - manifest: JSON array of {page_content, metadata}, index-aligned with
//     the blob. manifest[i] is the document for blob row i.
//
// Both files are written to temp names and renamed into place so a reader
// never observes a partially written artifact. A blob/manifest pair whose
// lengths disagree is rejected on load.

const (
	blobMagic   = "BVEC"
	blobVersion = uint32(1)
)

// Persist writes the current snapshot to the given index blob and manifest
// paths. It fails if the index has not been built.
func (ix *Index) Persist(indexPath, manifestPath string) error {
	snap := ix.snap.Load()
	if snap == nil {
		return ErrNotInitialized
	}

	if err := writeBlob(indexPath, snap); err != nil {
		return fmt.Errorf("writing index blob: %w", err)
	}
	if err := writeManifest(manifestPath, snap.docs); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load restores a snapshot from disk. It returns false (and no error) when
// either artifact is absent, signaling the caller to build fresh.
func (ix *Index) Load(indexPath, manifestPath string) (bool, error) {
	for _, p := range []string{indexPath, manifestPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return false, nil
		} else if err != nil {
			return false, fmt.Errorf("checking %s: %w", p, err)
		}
	}

	dim, vectors, err := readBlob(indexPath)
	if err != nil {
		return false, fmt.Errorf("reading index blob: %w", err)
	}

	docs, err := readManifest(manifestPath)
	if err != nil {
		return false, fmt.Errorf("reading manifest: %w", err)
	}

	if len(vectors) != len(docs) {
		return false, fmt.Errorf("index/manifest mismatch: %d vectors, %d documents", len(vectors), len(docs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snap.Store(&snapshot{dim: dim, vectors: vectors, docs: docs})
	ix.state.Store(int32(StateReady))
	return true, nil
}

func writeBlob(path string, snap *snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(blobMagic); err != nil {
		tmp.Close()
		return err
	}
	for _, v := range []uint32{blobVersion, uint32(snap.dim), uint32(len(snap.vectors))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			tmp.Close()
			return err
		}
	}

	buf := make([]byte, 4)
	for _, vec := range snap.vectors {
		for _, x := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			if _, err := w.Write(buf); err != nil {
				tmp.Close()
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readBlob(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, len(blobMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != blobMagic {
		return 0, nil, fmt.Errorf("bad index blob magic")
	}

	var version, dim, count uint32
	for _, p := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return 0, nil, err
		}
	}
	if version != blobVersion {
		return 0, nil, fmt.Errorf("unsupported index blob version %d", version)
	}

	vectors := make([][]float32, count)
	buf := make([]byte, 4)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			if _, err := io.ReadFull(r, buf); err != nil {
				return 0, nil, fmt.Errorf("truncated index blob: %w", err)
			}
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		vectors[i] = vec
	}

	return int(dim), vectors, nil
}

func writeManifest(path string, docs []knowledge.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readManifest(path string) ([]knowledge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []knowledge.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return docs, nil
}
