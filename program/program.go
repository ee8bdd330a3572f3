// Package program reads and writes BasicML program files.
//
// A program file holds one word per line. Only the first whitespace
// delimited token of a line is the word; the rest of the line is free
// text. Blank lines are kept as empty words, so that they load as
// malformed words at their address.
package program

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ezrec/basicml/word"
)

// CreateFS is a file system that files can also be created in.
type CreateFS interface {
	fs.FS
	// Create creates or truncates a file for writing.
	Create(name string) (file io.WriteCloser, err error)
}

type dirFS struct {
	fs.FS
	dir string
}

// DirFS returns a CreateFS for a host directory.
func DirFS(dir string) CreateFS {
	return &dirFS{FS: os.DirFS(dir), dir: dir}
}

func (dfs *dirFS) Create(name string) (file io.WriteCloser, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
		return
	}

	return os.Create(filepath.Join(dfs.dir, filepath.FromSlash(name)))
}

// Read returns the word of every line of a program.
func Read(r io.Reader) (words []string, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			words = append(words, "")
			continue
		}
		words = append(words, fields[0])
	}

	err = scanner.Err()

	return
}

// ReadFile reads a program from a file system.
func ReadFile(fsys fs.FS, name string) (words []string, err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	return Read(inf)
}

// Write saves words one per line.
func Write(w io.Writer, words []string) (err error) {
	bw := bufio.NewWriter(w)
	for _, text := range words {
		_, err = fmt.Fprintln(bw, text)
		if err != nil {
			return
		}
	}

	return bw.Flush()
}

// WriteFile saves words to a file system.
func WriteFile(fsys CreateFS, name string, words []string) (err error) {
	ouf, err := fsys.Create(name)
	if err != nil {
		return
	}

	err = Write(ouf, words)
	err = errors.Join(err, ouf.Close())

	return
}

var (
	legacyCodec = word.Codec{Width: 4}
	modernCodec = word.Codec{Width: 6}
)

// ConvertLegacy widens four digit words to six digits, moving each half
// of the word into a three digit field: "+ABCD" becomes "+0AB0CD".
//
// Lines that are not legacy words are nulled to "+000000" and reported
// in the joined error; the conversion is always complete.
func ConvertLegacy(words []string) (converted []string, err error) {
	var errs []error

	converted = make([]string, len(words))
	for n, text := range words {
		value, perr := legacyCodec.Parse(text)
		if perr != nil {
			errs = append(errs, ErrLegacy{LineNo: n + 1, Text: text})
			converted[n] = modernCodec.Zero()
			continue
		}
		if value == 0 {
			converted[n] = modernCodec.Zero()
			continue
		}

		converted[n] = text[0:1] + "0" + text[1:3] + "0" + text[3:5]
	}

	err = errors.Join(errs...)

	return
}

// ConvertedName returns the name a converted copy of a program is saved
// under, ie "prog_converted.txt" for "prog.txt".
func ConvertedName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_converted" + ext
}

// ConvertFile converts a legacy program in a file system, saving the copy
// next to it. The copy is saved even when some lines were nulled.
func ConvertFile(fsys CreateFS, name string) (saved string, err error) {
	words, err := ReadFile(fsys, name)
	if err != nil {
		return
	}

	converted, cerr := ConvertLegacy(words)

	saved = ConvertedName(name)
	err = WriteFile(fsys, saved, converted)
	if err != nil {
		return
	}

	err = cerr

	return
}
