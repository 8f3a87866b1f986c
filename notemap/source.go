package notemap

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/jsphweid/harptab/util"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

var ErrUnknownMapping = errors.New("unknown harmonica mapping")

type UnknownMappingError struct {
	Type string
	Key  string
}

func (e *UnknownMappingError) Error() string {
	return fmt.Sprintf("%v: %s harmonica in %s", ErrUnknownMapping, e.Type, e.Key)
}

func (e *UnknownMappingError) Unwrap() error {
	return ErrUnknownMapping
}

// Source resolves a (type, key) pair to a NoteMap.
type Source interface {
	Load(harpType, key string) (*NoteMap, error)
}

type ID struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// Lister is implemented by sources that can enumerate their tables.
type Lister interface {
	List() ([]ID, error)
}

var keyAliases = map[string]string{
	"A#": "Bb",
	"C#": "Db",
	"D#": "Eb",
	"G#": "Ab",
	"Gb": "F#",
}

// NormalizeKey spells a harmonica key the way tables are named: "bb" -> "Bb",
// "c#" -> "Db".
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return key
	}
	key = strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

type fsSource struct {
	fsys fs.FS
	dir  string
}

// Embedded serves the tables compiled into the binary.
func Embedded() Source {
	return &fsSource{fsys: dataFS, dir: "data"}
}

// Dir serves <type>_<key>.yaml tables from a directory.
func Dir(dir string) Source {
	return &fsSource{fsys: os.DirFS(dir), dir: "."}
}

// Filer is implemented by sources that can hand out the stored form of a
// table, which is what gets copied into another store.
type Filer interface {
	File(harpType, key string) (File, error)
}

func (s *fsSource) File(harpType, key string) (File, error) {
	harpType = strings.ToLower(strings.TrimSpace(harpType))
	key = NormalizeKey(key)

	var f File
	name := path.Join(s.dir, fmt.Sprintf("%s_%s.yaml", harpType, key))
	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return f, &UnknownMappingError{Type: harpType, Key: key}
	}
	if err != nil {
		return f, fmt.Errorf("reading harmonica table %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing harmonica table %s: %w", name, err)
	}
	if f.Type != harpType || NormalizeKey(f.Key) != key {
		return f, fmt.Errorf("harmonica table %s describes %s %s", name, f.Type, f.Key)
	}
	return f, nil
}

func (s *fsSource) Load(harpType, key string) (*NoteMap, error) {
	f, err := s.File(harpType, key)
	if err != nil {
		return nil, err
	}
	return Build(f)
}

func (s *fsSource) List() ([]ID, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, err
	}

	var res []ID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		harpType, key, ok := strings.Cut(strings.TrimSuffix(name, ".yaml"), "_")
		if !ok {
			continue
		}
		res = append(res, ID{Type: harpType, Key: key})
	}
	SortIDs(res)
	return res, nil
}

// SortIDs orders ids by type, then key.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Type != ids[j].Type {
			return ids[i].Type < ids[j].Type
		}
		return ids[i].Key < ids[j].Key
	})
}

type cached struct {
	src  Source
	mu   sync.Mutex
	maps map[ID]*NoteMap
}

// Cached memoizes successful loads of src. It is safe for concurrent use.
func Cached(src Source) Source {
	return &cached{src: src, maps: make(map[ID]*NoteMap)}
}

func (c *cached) Load(harpType, key string) (*NoteMap, error) {
	id := ID{Type: strings.ToLower(strings.TrimSpace(harpType)), Key: NormalizeKey(key)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if nm, ok := c.maps[id]; ok {
		return nm, nil
	}
	nm, err := c.src.Load(id.Type, id.Key)
	if err != nil {
		return nil, err
	}
	c.maps[id] = nm
	return nm, nil
}

func (c *cached) List() ([]ID, error) {
	if l, ok := c.src.(Lister); ok {
		return l.List()
	}
	return nil, errors.New("source cannot list its tables")
}

// Group collects listed tables by harmonica type.
func Group(ids []ID) map[string][]string {
	res := make(map[string][]string)
	for _, id := range ids {
		res[id.Type] = append(res[id.Type], id.Key)
	}
	return res
}

// Keys lists the keys of the embedded tables for one harmonica type.
func Keys(harpType string) []string {
	ids, err := Embedded().(Lister).List()
	if err != nil {
		return nil
	}
	return Group(ids)[strings.ToLower(harpType)]
}

// Types lists the harmonica types with embedded tables.
func Types() []string {
	ids, err := Embedded().(Lister).List()
	if err != nil {
		return nil
	}
	return util.SortedKeys(Group(ids))
}
