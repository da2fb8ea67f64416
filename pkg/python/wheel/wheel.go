package wheel

import (
	"archive/zip"
	"bufio"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"net/textproto"
	"path"
	"sort"
	"strings"

	"github.com/datawire/dlib/derror"

	"github.com/fbtools/wheelhouse/pkg/python/metadata"
)

// A Wheel is an opened wheel zip archive.
type Wheel struct {
	zip    *zip.Reader
	closer io.Closer

	cachedDistInfoDir string
}

// Open opens the wheel file at the given path.
func Open(filename string) (*Wheel, error) {
	zipReader, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("wheel.Open: %w", err)
	}
	return &Wheel{
		zip:    &zipReader.Reader,
		closer: zipReader,
	}, nil
}

// NewReader reads a wheel from an already-open file.
func NewReader(reader io.ReaderAt, size int64) (*Wheel, error) {
	zipReader, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("wheel.NewReader: %w", err)
	}
	return &Wheel{zip: zipReader}, nil
}

func (wh *Wheel) Close() error {
	if wh.closer == nil {
		return nil
	}
	return wh.closer.Close()
}

// OpenFile opens a file inside the wheel archive by its slash-separated path.
func (wh *Wheel) OpenFile(filename string) (io.ReadCloser, error) {
	filename = path.Clean(filename)
	for _, file := range wh.zip.File {
		if path.Clean(file.Name) == filename {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("%w in wheel zip archive: %q", fs.ErrNotExist, filename)
}

// DistInfoDir returns the single "{name}-{version}.dist-info" directory name.
// Zero or several such directories is an error; this follows pip's
// wheel_dist_info_dir(), since PEP 427 itself leaves the ambiguity open.
func (wh *Wheel) DistInfoDir() (string, error) {
	if wh.cachedDistInfoDir != "" {
		return wh.cachedDistInfoDir, nil
	}
	infoDirs := make(map[string]struct{})
	for _, file := range wh.zip.File {
		dirname := strings.Split(path.Clean(file.Name), "/")[0]
		if !strings.HasSuffix(dirname, ".dist-info") {
			continue
		}
		infoDirs[dirname] = struct{}{}
	}

	switch len(infoDirs) {
	case 0:
		return "", fmt.Errorf(".dist-info directory not found")
	case 1:
		for infoDir := range infoDirs {
			wh.cachedDistInfoDir = infoDir
			return infoDir, nil
		}
		panic("not reached")
	default:
		list := make([]string, 0, len(infoDirs))
		for dir := range infoDirs {
			list = append(list, dir)
		}
		sort.Strings(list)
		return "", fmt.Errorf("multiple .dist-info directories found: %v", list)
	}
}

// Metadata reads and parses the archive's core-metadata file.
func (wh *Wheel) Metadata() (*metadata.Metadata, error) {
	infoDir, err := wh.DistInfoDir()
	if err != nil {
		return nil, err
	}
	mdFile, err := wh.OpenFile(path.Join(infoDir, "METADATA"))
	if err != nil {
		return nil, err
	}
	defer mdFile.Close()
	return metadata.Parse(mdFile)
}

// Info reads the .dist-info/WHEEL file (metadata about the archive itself:
// Wheel-Version, Generator, Root-Is-Purelib, expanded Tags).
func (wh *Wheel) Info() (textproto.MIMEHeader, error) {
	infoDir, err := wh.DistInfoDir()
	if err != nil {
		return nil, err
	}
	wheelFile, err := wh.OpenFile(path.Join(infoDir, "WHEEL"))
	if err != nil {
		return nil, err
	}
	defer wheelFile.Close()

	// There is no body after the header, so the blank line terminating it
	// may be missing; pad with CRLFs to keep ReadMIMEHeader happy.
	kvReader := textproto.NewReader(bufio.NewReader(io.MultiReader(
		wheelFile,
		strings.NewReader("\r\n\r\n\r\n"),
	)))
	return kvReader.ReadMIMEHeader()
}

// RECORD hashes must be sha256 or better; md5 and sha1 are not permitted.
// This list matches pip's pip/_internal/utils/hashes.py.
//
//nolint:gochecknoglobals // would be 'const'
var strongHashes = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Verify re-hashes every file in the archive against its RECORD entry.  Every
// file except RECORD itself and its signatures (RECORD.jws, RECORD.p7s) must
// be present in RECORD with a correct hash, and every RECORD row must name a
// file that exists.  The returned error aggregates all findings.
func (wh *Wheel) Verify() error {
	distInfoDir, err := wh.DistInfoDir()
	if err != nil {
		return err
	}

	todo := make(map[string]struct{})
	for _, file := range wh.zip.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(file.Name)
		switch name {
		case path.Join(distInfoDir, "RECORD.jws"),
			path.Join(distInfoDir, "RECORD.p7s"):
			// not mentioned in RECORD; they can only be added after
			// RECORD is generated
		default:
			todo[name] = struct{}{}
		}
	}

	recordName := path.Join(distInfoDir, "RECORD")
	recordRows, err := wh.readRecord(recordName)
	if err != nil {
		return err
	}

	var errs derror.MultiError
	for i, row := range recordRows {
		if len(row) != 3 {
			errs = append(errs, fmt.Errorf("RECORD row %d: does not have 3 columns: %q", i, row))
			continue
		}
		name, recHashsum, recSize := path.Clean(row[0]), row[1], row[2]
		delete(todo, name)
		if recHashsum == "" || recSize == "" {
			if name != recordName {
				errs = append(errs, fmt.Errorf("RECORD row %d: missing hash or size: %q", i, row))
			}
			continue
		}

		algo := strings.SplitN(recHashsum, "=", 2)[0]
		actHashsum, actSize, err := wh.hashFile(name, algo)
		if err != nil {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: %w", i, name, err))
			continue
		}
		if actHashsum != recHashsum {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: hash mismatch: expected=%q actual=%q",
				i, name, recHashsum, actHashsum))
		}
		if recSize != fmt.Sprint(actSize) {
			errs = append(errs, fmt.Errorf("RECORD row %d: file %q: size mismatch: expected=%s actual=%d",
				i, name, recSize, actSize))
		}
	}

	missing := make([]string, 0, len(todo))
	for name := range todo {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	for _, name := range missing {
		errs = append(errs, fmt.Errorf("file %q is not mentioned in RECORD", name))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (wh *Wheel) readRecord(recordName string) ([][]string, error) {
	reader, err := wh.OpenFile(recordName)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	rows, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", recordName, err)
	}
	return rows, nil
}

// hashFile hashes a file inside the archive, returning the RECORD-style
// "algo=urlsafe_b64encode_nopad(digest)" string and the file's size.
func (wh *Wheel) hashFile(filename, algo string) (hashsum string, size int64, err error) {
	newHasher, ok := strongHashes[algo]
	if !ok {
		return "", 0, fmt.Errorf("unsupported hash algorithm: %q", algo)
	}

	reader, err := wh.OpenFile(filename)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = reader.Close()
	}()

	hasher := newHasher()
	size, err = io.Copy(hasher, reader)
	if err != nil {
		return "", 0, err
	}
	return algo + "=" + base64.RawURLEncoding.EncodeToString(hasher.Sum(nil)), size, nil
}
