package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/harptab/midi"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/musicxml"
	"github.com/jsphweid/harptab/util"
)

var ErrUnsupportedFormat = errors.New("unsupported score format")

// extensions read by ReadScore
var readers = map[string]func(string) (*model.Score, error){
	".json":     readJSON,
	".xml":      musicxml.ReadFile,
	".musicxml": musicxml.ReadFile,
	".mxl":      musicxml.ReadFile,
	".mid":      midi.ReadFile,
	".midi":     midi.ReadFile,
}

func IsScore(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadScore reads a score in any supported format, chosen by extension.
// JSON files hold a model.Score as produced by score recognition.
func ReadScore(path string) (*model.Score, error) {
	read, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return read(path)
}

func readJSON(path string) (*model.Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var score model.Score
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	score.SourceFile = path
	return &score, nil
}

// GatherScorePaths walks root for readable scores, in lexical order. A
// maxNum of 0 means no limit.
func GatherScorePaths(root string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsScore(s) {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, err
	}
	return res, nil
}

type FileNumToPath map[uint32]string

func CreateFileNumMap(paths []string) FileNumToPath {
	res := make(FileNumToPath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}

// Nums returns the file numbers in order.
func (m FileNumToPath) Nums() []uint32 {
	return util.SortedKeys(m)
}

// OutputPath names the file written for score num: the file number and the
// score's base name with ext, inside dir. The number keeps scores of the same
// name from different directories apart.
func OutputPath(num uint32, scorePath, dir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(scorePath), filepath.Ext(scorePath))
	return filepath.Join(dir, fmt.Sprintf("%04d_%s%s", num, base, ext))
}
