package state

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

const escapeChar = '\\'

// escapeKey makes a property key safe for the keyfile format.
// Backslash, space, '=', '[' and ']' are replaced with two-character
// escape sequences; compressKey reverses the transformation.
func escapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) * 2)
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case escapeChar:
			b.WriteByte(escapeChar)
			b.WriteByte(escapeChar)
		case ' ':
			b.WriteByte(escapeChar)
			b.WriteByte('s')
		case '=':
			b.WriteByte(escapeChar)
			b.WriteByte('e')
		case '[':
			b.WriteByte(escapeChar)
			b.WriteByte('o')
		case ']':
			b.WriteByte(escapeChar)
			b.WriteByte('c')
		default:
			b.WriteByte(key[i])
		}
	}
	return b.String()
}

// compressKey undoes escapeKey. Unknown escape sequences are preserved
// verbatim so compressKey never fails on hand-edited files.
func compressKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		if key[i] == escapeChar && i+1 < len(key) {
			switch key[i+1] {
			case escapeChar:
				b.WriteByte(escapeChar)
			case 's':
				b.WriteByte(' ')
			case 'e':
				b.WriteByte('=')
			case 'o':
				b.WriteByte('[')
			case 'c':
				b.WriteByte(']')
			default:
				b.WriteByte(key[i])
				b.WriteByte(key[i+1])
			}
			i++
			continue
		}
		b.WriteByte(key[i])
	}
	return b.String()
}

// escapeValue makes a property value safe for a single keyfile line.
func escapeValue(val string) string {
	var b strings.Builder
	b.Grow(len(val))
	for i := 0; i < len(val); i++ {
		switch val[i] {
		case escapeChar:
			b.WriteByte(escapeChar)
			b.WriteByte(escapeChar)
		case '\n':
			b.WriteByte(escapeChar)
			b.WriteByte('n')
		case '\r':
			b.WriteByte(escapeChar)
			b.WriteByte('r')
		default:
			b.WriteByte(val[i])
		}
	}
	return b.String()
}

// compressValue undoes escapeValue.
func compressValue(val string) string {
	var b strings.Builder
	b.Grow(len(val))
	for i := 0; i < len(val); i++ {
		if val[i] == escapeChar && i+1 < len(val) {
			switch val[i+1] {
			case escapeChar:
				b.WriteByte(escapeChar)
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(val[i])
				b.WriteByte(val[i+1])
			}
			i++
			continue
		}
		b.WriteByte(val[i])
	}
	return b.String()
}

// FileStore persists property sets as keyfiles, one file per name, under
// a single directory. The format is INI-like: a section header naming the
// state followed by escaped key=value lines.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir returns the default state directory,
// $XDG_STATE_HOME/hookflow (falling back to ~/.local/state/hookflow).
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve state dir: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "hookflow"), nil
}

// NewFileStore creates a keyfile store rooted at dir, creating the
// directory if needed. An empty dir selects DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Location returns the file path used for a state name.
func (s *FileStore) Location(name string) string {
	return filepath.Join(s.dir, name)
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(name string, props *event.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", name)
	props.Range(func(key, value string) bool {
		fmt.Fprintf(&b, "%s=%s\n", escapeKey(key), escapeValue(value))
		return true
	})

	location := s.Location(name)
	tmp := location + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("could not save %s: %w", name, err)
	}
	if err := os.Rename(tmp, location); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not save %s: %w", name, err)
	}
	return nil
}

// Load implements Store. It never fails: if the file is missing or
// malformed, an empty property set is returned as if there was no
// previous state.
func (s *FileStore) Load(name string) (*event.Properties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	props := event.NewProperties()

	f, err := os.Open(s.Location(name))
	if err != nil {
		return props, nil
	}
	defer f.Close()

	inSection := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = line == "["+name+"]"
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props.Set(compressKey(key), compressValue(value))
	}

	return props, nil
}

// Clear implements Store, removing the state file.
func (s *FileStore) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Location(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not clear %s: %w", name, err)
	}
	return nil
}

// Close implements Store. FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}
