package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema - JSON Schema каталога. Проверяется до декодирования,
// чтобы испорченный файл считался повреждённым, а не частично прочитанным.
const documentSchema = `{
  "type": "object",
  "properties": {
    "templates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "firstStage", "secondStage"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "firstStage": {"type": "string"},
          "secondStage": {"type": "string"},
          "isDefault": {"type": "boolean"}
        }
      }
    },
    "activeId": {"type": ["string", "null"]}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// FileSource - каталог шаблонов в одном JSON или YAML файле.
//
// Формат выбирается по расширению: .yaml/.yml - YAML, всё остальное - JSON.
type FileSource struct {
	path string
	mu   sync.Mutex
}

// NewFileSource создаёт FileSource для указанного файла.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

var _ Source = (*FileSource)(nil)

func (s *FileSource) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load читает шаблоны из файла.
func (s *FileSource) Load(ctx context.Context) ([]TemplateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Templates == nil {
		return nil, ErrNotFound
	}
	return doc.Templates, nil
}

// Save перезаписывает шаблоны, сохраняя activeId.
func (s *FileSource) Save(ctx context.Context, templates []TemplateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readForUpdate()
	if err != nil {
		return err
	}
	doc.Templates = cloneTemplates(templates)
	if doc.Templates == nil {
		doc.Templates = []TemplateData{}
	}
	return s.write(doc)
}

func (s *FileSource) LoadActiveID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", err
	}
	if doc.ActiveID == "" {
		return "", ErrNotFound
	}
	return doc.ActiveID, nil
}

func (s *FileSource) SaveActiveID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readForUpdate()
	if err != nil {
		return err
	}
	doc.ActiveID = id
	return s.write(doc)
}

// readForUpdate - как read, но отсутствие файла и мусор в нём дают пустой документ:
// запись всегда заменяет повреждённые данные.
func (s *FileSource) readForUpdate() (*Document, error) {
	doc, err := s.read()
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
		return &Document{}, nil
	}
	return doc, err
}

func (s *FileSource) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	return decodeDocument(data, s.isYAML())
}

func (s *FileSource) write(doc *Document) error {
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode template file: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить половину документа
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace template file: %w", err)
	}
	return nil
}

// decodeDocument валидирует данные по схеме и декодирует каталог.
func decodeDocument(data []byte, isYAML bool) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNotFound
	}

	var generic any
	if isYAML {
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	} else if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, strings.Join(problems, "; "))
	}

	var doc Document
	if isYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &doc, nil
}

// ValidateDocument проверяет файл каталога без загрузки (для CLI).
func ValidateDocument(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, err = decodeDocument(data, ext == ".yaml" || ext == ".yml")
	return err
}
