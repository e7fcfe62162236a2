// =============================================================================
// Conciliador - Template Store
// =============================================================================
//
// Templates are persisted as one JSON file per template inside a directory.
// The file name is the slug of the template name: trimmed, lower-cased,
// spaces replaced by underscores ("Banco Azul" -> "banco_azul.json").
//
// RECORD FORMAT:
//   {
//       "nome": "Banco Azul",
//       "data_criacao": "06/10/2025 14:30:00",
//       "mapping": {"Data": "date", "Valor": "amount", "Cliente": "cliente"},
//       "colunas": ["Data", "Valor", "Cliente"],
//       "formatacao": {"Valor": "#,##0.00"}
//   }
//
//   "colunas" and "formatacao" are optional. Without "colunas" the key order
//   of "mapping" defines the output column order.
//
// =============================================================================

package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CreatedAtLayout is the layout of the data_criacao field.
const CreatedAtLayout = "02/01/2006 15:04:05"

var (
	// ErrTemplateNotFound is returned when a named template does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidName is returned for names that do not yield a usable slug.
	ErrInvalidName = errors.New("invalid template name")
)

// Slug converts a template name into its file name stem.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// =============================================================================
// FIELD MAPPING
// =============================================================================

// MappingEntry pairs an output column with its source field.
type MappingEntry struct {
	Column string
	Field  string
}

// FieldMapping is an ordered column -> field mapping. It encodes as a JSON
// object and keeps the object's key order when decoded.
type FieldMapping []MappingEntry

// Columns returns the mapped columns in order.
func (m FieldMapping) Columns() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Column
	}
	return out
}

// Map returns the mapping as a plain map.
func (m FieldMapping) Map() map[string]string {
	out := make(map[string]string, len(m))
	for _, e := range m {
		out[e.Column] = e.Field
	}
	return out
}

// MarshalJSON encodes the mapping as an object in entry order.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(e.Column)
		if err != nil {
			return nil, err
		}
		val, err := marshalString(e.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string values, keeping key order.
// A repeated key keeps its first position and its last value.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("mapping must be a JSON object")
	}

	var out FieldMapping
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var field string
		if err := dec.Decode(&field); err != nil {
			return fmt.Errorf("mapping %q: value must be a string: %w", key, err)
		}

		if i, dup := index[key]; dup {
			out[i].Field = field
			continue
		}
		index[key] = len(out)
		out = append(out, MappingEntry{Column: key, Field: field})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// =============================================================================
// RECORD
// =============================================================================

// Record is the on-disk form of a template.
type Record struct {
	Name       string            `json:"nome"`
	CreatedAt  string            `json:"data_criacao"`
	Mapping    FieldMapping      `json:"mapping"`
	Columns    []string          `json:"colunas,omitempty"`
	Formatting map[string]string `json:"formatacao,omitempty"`
}

// Template builds a validated Template from the record.
func (r Record) Template() (*Template, error) {
	columns := r.Columns
	if len(columns) == 0 {
		columns = r.Mapping.Columns()
	}
	return New(r.Name, columns, r.Mapping.Map(), r.Formatting)
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps template records in a directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	slug := Slug(name)
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, slug+".json"), nil
}

// Save validates and writes a template record, replacing any record with
// the same slug.
//
// PARAMETERS:
//   - name: Template name; also stored verbatim in the record.
//   - columns: Output columns; nil means the mapping order.
//   - mapping: Ordered column -> source field mapping.
//   - formatting: Optional formatting metadata.
//
// RETURNS:
//   - The path of the written file.
//   - An error if the template is invalid or the file cannot be written.
func (s *Store) Save(name string, columns []string, mapping FieldMapping, formatting map[string]string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	record := Record{
		Name:       name,
		CreatedAt:  s.now().Format(CreatedAtLayout),
		Mapping:    mapping,
		Columns:    columns,
		Formatting: formatting,
	}
	if _, err := record.Template(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("failed to encode template %q: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create template directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write template %q: %w", name, err)
	}

	return path, nil
}

// Load reads the record for name. A missing record returns ok == false and
// no error.
func (s *Store) Load(name string) (Record, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return Record{}, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read template %q: %w", name, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode template %s: %w", path, err)
	}
	return record, true, nil
}

// List returns the slugs of every stored template, sorted. A missing
// directory yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the record for name and reports whether it existed.
func (s *Store) Delete(name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete template %q: %w", name, err)
	}
	return true, nil
}

// Resolve returns the Template to use for name. An empty name selects the
// built-in template, which a stored record of the same name overrides.
func (s *Store) Resolve(name string) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}

	record, ok, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		if Slug(name) == Slug(DefaultName) {
			return Default(), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return record.Template()
}
